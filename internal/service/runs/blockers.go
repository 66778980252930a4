package runs

import (
	"strings"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

// CodeInfo is a selected executable: its node reference and the computer it
// is installed on.
type CodeInfo struct {
	Ref      string
	Computer string
}

// Environment reports the state of the background setup collaborators at
// submission time.
type Environment struct {
	SetupBusy        bool
	PseudosInstalled bool
}

// SubmissionBlockers returns the advisory reasons this selection cannot be
// submitted yet. Blockers are not errors: submission is simply held back
// while the list is non-empty.
func SubmissionBlockers(params *domain.ParametersDocument, codes map[string]CodeInfo, env Environment) []string {
	var blockers []string

	if env.SetupBusy {
		blockers = append(blockers, "Background setup processes must finish.")
	}

	pwSelected := strings.TrimSpace(codes["pw"].Ref) != ""
	if !pwSelected && !env.SetupBusy {
		blockers = append(blockers, "No pw code selected.")
	}

	wantsPdos := params != nil && params.HasProperty("pdos")
	dosSelected := strings.TrimSpace(codes["dos"].Ref) != ""
	projwfcSelected := strings.TrimSpace(codes["projwfc"].Ref) != ""
	if wantsPdos && (!dosSelected || !projwfcSelected) && !env.SetupBusy {
		blockers = append(blockers, "Calculating the PDOS requires both dos.x and projwfc.x to be set.")
	}

	if !env.PseudosInstalled {
		blockers = append(blockers, "The SSSP library is not installed.")
	}

	if wantsPdos && pwSelected && dosSelected && projwfcSelected {
		computers := map[string]struct{}{
			codes["pw"].Computer:      {},
			codes["dos"].Computer:     {},
			codes["projwfc"].Computer: {},
		}
		if len(computers) != 1 {
			blockers = append(blockers,
				"All selected codes must be installed on the same computer. This is because the "+
					"PDOS calculations rely on large files that are not retrieved from the remote machine.")
		}
	}

	return blockers
}
