// Package parallel derives default parallelization settings from the
// compute allocation selected for a run.
package parallel

import "fmt"

// MaxMPIPerPool caps how many MPI tasks run per k-point pool by default.
const MaxMPIPerPool = 20

// NumSitesPerMPITask is a rough estimate for how many MPI tasks a given
// structure needs.
const NumSitesPerMPITask = 6

// DefaultNumPools returns the smallest i >= 1 that evenly divides
// numMachines*numCPUsPerMachine with total/i < maxMPIPerPool. It errors
// when no such divisor exists, which can only happen for maxMPIPerPool <= 1.
func DefaultNumPools(numMachines, numCPUsPerMachine, maxMPIPerPool int) (int, error) {
	total := numMachines * numCPUsPerMachine
	if total <= 0 {
		return 0, fmt.Errorf("invalid allocation: %d machines x %d cpus", numMachines, numCPUsPerMachine)
	}
	for i := 1; i <= total; i++ {
		if total%i == 0 && total/i < maxMPIPerPool {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no pool count satisfies %d tasks with at most %d per pool", total, maxMPIPerPool)
}
