package report

import "github.com/google/uuid"

// idNamespace scopes the deterministic ids this engine mints. Changing
// it invalidates every flow and variable id clients have persisted
// hide/review state against, so it is fixed for the format's lifetime.
var idNamespace = uuid.MustParse("7c3f9a52-1e84-4b6d-a9f0-58c2d4e6b173")

// FlowID derives the stable id of an entry point listing from its flow
// key. Identical keys always produce identical ids across runs.
func FlowID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// VarID derives the stable id of a variable listing from its var key.
func VarID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
