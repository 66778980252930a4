package runs

import (
	"strings"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/parallel"
)

// RunOnLocalhostNumSitesWarnThreshold is the structure size above which a
// localhost run gets a resource warning.
const RunOnLocalhostNumSitesWarnThreshold = 10

// DefaultResources derives the resource selection for a computer. The
// local machine always runs single-node, single-process; a remote computer
// starts from its default MPI process count with a derived pool count.
func DefaultResources(computer string, defaultMPIProcs int) (domain.Resources, error) {
	if isLocalhost(computer) {
		return domain.Resources{
			NumMachines:           1,
			NumMPIProcsPerMachine: 1,
			NumPools:              1,
		}, nil
	}
	if defaultMPIProcs <= 0 {
		defaultMPIProcs = 1
	}
	npools, err := parallel.DefaultNumPools(1, defaultMPIProcs, parallel.MaxMPIPerPool)
	if err != nil {
		return domain.Resources{}, err
	}
	return domain.Resources{
		NumMachines:           1,
		NumMPIProcsPerMachine: defaultMPIProcs,
		NumPools:              npools,
	}, nil
}

// CheckResources warns when the selected resources look insufficient or
// misplaced for the structure. Warnings never block submission.
func CheckResources(structure *domain.StructureData, resources domain.Resources, computer string) []string {
	if !isLocalhost(computer) {
		return nil
	}
	var warnings []string
	if resources.NumMPIProcsPerMachine > 1 {
		warnings = append(warnings,
			"The selected code would be executed on the local host, but the number of CPUs "+
				"is larger than one. Please review the configuration and consider to select "+
				"a code that runs on a larger system if necessary.")
	} else if structure != nil && structure.NumSites() > RunOnLocalhostNumSitesWarnThreshold {
		warnings = append(warnings,
			"The selected code would be executed on the local host, but the number of sites "+
				"of the selected structure is relatively large. Consider to select a code that "+
				"runs on a larger system if necessary.")
	}
	return warnings
}

func isLocalhost(computer string) bool {
	computer = strings.TrimSpace(computer)
	return computer == "" || computer == "localhost"
}
