package runs

import (
	"testing"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

func TestDefaultResourcesLocalhost(t *testing.T) {
	res, err := DefaultResources("localhost", 16)
	if err != nil {
		t.Fatalf("DefaultResources: %v", err)
	}
	want := domain.Resources{NumMachines: 1, NumMPIProcsPerMachine: 1, NumPools: 1}
	if res != want {
		t.Fatalf("resources = %+v, want %+v", res, want)
	}
}

func TestDefaultResourcesRemote(t *testing.T) {
	res, err := DefaultResources("hpc.cluster", 48)
	if err != nil {
		t.Fatalf("DefaultResources: %v", err)
	}
	if res.NumMPIProcsPerMachine != 48 {
		t.Fatalf("mpiprocs = %d, want 48", res.NumMPIProcsPerMachine)
	}
	// 48/3 = 16 is the first quotient below the pool cap.
	if res.NumPools != 3 {
		t.Fatalf("npools = %d, want 3", res.NumPools)
	}
}

func TestCheckResourcesWarnings(t *testing.T) {
	big := &domain.StructureData{
		ID:   "d4f9a1c2-0000-4000-8000-000000000001",
		Cell: [3][3]float64{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}},
	}
	for i := 0; i < 12; i++ {
		big.Sites = append(big.Sites, domain.Site{Symbol: "Si"})
	}

	warnings := CheckResources(big, domain.Resources{NumMachines: 1, NumMPIProcsPerMachine: 4}, "localhost")
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want the CPU warning", warnings)
	}

	warnings = CheckResources(big, domain.Resources{NumMachines: 1, NumMPIProcsPerMachine: 1}, "localhost")
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want the structure size warning", warnings)
	}

	warnings = CheckResources(big, domain.Resources{NumMachines: 4, NumMPIProcsPerMachine: 48}, "hpc.cluster")
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none for a remote computer", warnings)
	}
}
