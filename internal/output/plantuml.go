package output

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nisedo/Trackidity/internal/facts"
	"github.com/nisedo/Trackidity/internal/shared/util"
)

type PlantUMLGenerator struct {
	unit *facts.Unit
	pc   *facts.PathClassifier
}

func NewPlantUMLGenerator(unit *facts.Unit, pc *facts.PathClassifier) *PlantUMLGenerator {
	return &PlantUMLGenerator{unit: unit, pc: pc}
}

// Generate renders the inheritance structure: one component per
// contract grouped by defining file, one edge per base declaration.
// Bases that never resolve show up as their own flagged components.
func (p *PlantUMLGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	b.WriteString("skinparam packageStyle rectangle\n")
	b.WriteString("skinparam linetype ortho\n")
	b.WriteString("left to right direction\n\n")

	byFile := make(map[string][]*facts.Contract)
	declared := make(map[string]bool, len(p.unit.Contracts))
	ordered := make([]string, 0, len(p.unit.Contracts))
	for i := range p.unit.Contracts {
		c := &p.unit.Contracts[i]
		if declared[c.Name] {
			continue
		}
		declared[c.Name] = true
		ordered = append(ordered, c.Name)
		byFile[c.File] = append(byFile[c.File], c)
	}

	missing := make(map[string]bool)
	for i := range p.unit.Contracts {
		for _, base := range p.unit.Contracts[i].Bases {
			if !declared[base] {
				missing[base] = true
			}
		}
	}
	missingNames := util.SortedKeys(missing)

	allNames := append(append([]string{}, ordered...), missingNames...)
	aliases := makePlantUMLAliases(allNames)

	for _, file := range util.SortedKeys(byFile) {
		b.WriteString(fmt.Sprintf("package \"%s\" {\n", escapePlantUML(file)))
		for _, c := range byFile[file] {
			color := ""
			if p.pc != nil && p.pc.IsDependency(c.File) {
				color = " #DDDDDD"
			}
			b.WriteString(fmt.Sprintf("  component \"%s\" as %s%s\n",
				escapePlantUML(p.contractLabel(c)), aliases[c.Name], color))
		}
		b.WriteString("}\n")
	}

	for _, name := range missingNames {
		b.WriteString(fmt.Sprintf("component \"%s\\n(unresolved)\" as %s #FFCCCC\n", escapePlantUML(name), aliases[name]))
	}

	b.WriteString("\n")
	for _, name := range ordered {
		c := contractByName(p.unit, name)
		for _, base := range c.Bases {
			if declared[base] {
				b.WriteString(fmt.Sprintf("%s --> %s\n", aliases[name], aliases[base]))
			} else {
				b.WriteString(fmt.Sprintf("%s -[#cc0000,dashed]-> %s\n", aliases[name], aliases[base]))
			}
		}
	}

	b.WriteString("\nlegend right\n")
	b.WriteString("|= Item |= Meaning |\n")
	b.WriteString("|Node line 1|Contract name|\n")
	b.WriteString("|Node line 2|Kind, function and state variable counts|\n")
	b.WriteString("|Edge|Derived contract pointing at its base|\n")
	b.WriteString("|<color:#DDDDDD>Component</color>|Dependency contract|\n")
	if len(missingNames) > 0 {
		b.WriteString("|<color:#cc0000>Red dashed edge</color>|Base never declared in the facts|\n")
	}
	b.WriteString("endlegend\n")

	b.WriteString("\n@enduml\n")
	return b.String(), nil
}

func (p *PlantUMLGenerator) contractLabel(c *facts.Contract) string {
	return fmt.Sprintf("%s\\n(%s, %d funcs, %d vars)", c.Name, c.Kind, len(c.Functions), len(c.StateVariables))
}

func contractByName(unit *facts.Unit, name string) *facts.Contract {
	for i := range unit.Contracts {
		if unit.Contracts[i].Name == name {
			return &unit.Contracts[i]
		}
	}
	return nil
}

func sanitizePlantUMLAlias(name string) string {
	if name == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "m"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

func makePlantUMLAliases(names []string) map[string]string {
	aliases := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizePlantUMLAlias(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			aliases[name] = base
			continue
		}
		aliases[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return aliases
}

func escapePlantUML(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
