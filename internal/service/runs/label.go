package runs

import (
	"strings"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

// GenerateLabel builds a human-readable run label from the chemical
// formula, the relaxation choice, and the selected properties. The relax
// pseudo-property is not a property of its own and is left out of the
// listing.
func GenerateLabel(formula string, relaxType string, properties []string) string {
	listed := make([]string, 0, len(properties))
	for _, property := range properties {
		if property == "relax" {
			continue
		}
		listed = append(listed, property)
	}

	relaxInfo := "structure is not relaxed"
	if parsed, ok := domain.ParseRelaxType(relaxType); ok && parsed != domain.RelaxTypeNone {
		relaxInfo = "structure is relaxed"
	}

	parts := []string{strings.TrimSpace(formula), relaxInfo}
	if len(listed) > 0 {
		parts = append(parts, "properties on "+strings.Join(listed, ", "))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
