// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"github.com/nisedo/Trackidity/internal/engine/report"
)

type TSVGenerator struct {
	result *report.Result
}

func NewTSVGenerator(result *report.Result) *TSVGenerator {
	return &TSVGenerator{result: result}
}

// Generate renders the flat writer table, one row per
// (variable, entry point) pair.
func (t *TSVGenerator) Generate() (string, error) {
	if t.result == nil || !t.result.OK {
		return "", fmt.Errorf("cannot render a failed analysis")
	}

	var buf strings.Builder

	buf.WriteString("File\tContract\tVariable\tType\tVarInherited\tWriter\tWriterContract\tDirect\tTruncated\n")

	for _, group := range t.result.Variables {
		for _, v := range group.Vars {
			for _, w := range v.Writers {
				buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%t\t%s\t%s\t%t\t%t\n",
					group.Path, group.Contract, v.Name, v.Type, v.Inherited,
					w.Label, w.Contract, w.Direct, w.Truncated))
			}
		}
	}

	return buf.String(), nil
}
