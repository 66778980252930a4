package pdos

import (
	"testing"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
)

const siPseudoRef = "6d48f6d4-53dd-4cef-9c35-0b6fb1ba7dbc"

func testStructure() *domain.StructureData {
	return &domain.StructureData{
		ID: "d4f9a1c2-0000-4000-8000-000000000001",
		Cell: [3][3]float64{
			{5.43, 0, 0},
			{0, 5.43, 0},
			{0, 0, 5.43},
		},
		Sites: []domain.Site{
			{Symbol: "Si", Position: [3]float64{0, 0, 0}},
			{Symbol: "Si", Position: [3]float64{1.36, 1.36, 1.36}},
		},
	}
}

func testParams() *domain.ParametersDocument {
	return &domain.ParametersDocument{
		Workchain: domain.WorkchainParameters{
			Protocol:       "fast",
			RelaxType:      "none",
			ElectronicType: "metal",
			SpinType:       "none",
			Properties:     []string{"pdos"},
		},
		Advanced: domain.AdvancedParameters{
			PW: domain.PWAdvanced{
				Pseudos: map[string]string{"Si": siPseudoRef},
			},
		},
	}
}

func testCodes() map[string]string {
	return map[string]string{
		"pw":      "3f2a7b1e-1111-4111-8111-000000000002",
		"dos":     "3f2a7b1e-1111-4111-8111-000000000003",
		"projwfc": "3f2a7b1e-1111-4111-8111-000000000004",
	}
}

func TestGetBuilderRequiresAllCodes(t *testing.T) {
	for _, missing := range []string{"pw", "dos", "projwfc"} {
		codes := testCodes()
		delete(codes, missing)
		if _, err := GetBuilder(codes, testStructure(), testParams()); err == nil {
			t.Fatalf("expected an error without the %s code", missing)
		}
	}
}

func TestGetBuilderNamespaces(t *testing.T) {
	codes := testCodes()
	ns, err := GetBuilder(codes, testStructure(), testParams())
	if err != nil {
		t.Fatalf("GetBuilder: %v", err)
	}

	if got, ok := ns.Lookup("scf.kpoints_distance"); !ok || got != 0.50 {
		t.Fatalf("scf.kpoints_distance = %v, want 0.50", got)
	}
	if got, ok := ns.Lookup("nscf.kpoints_distance"); !ok || got != 0.50*NScfKpointsFactor {
		t.Fatalf("nscf.kpoints_distance = %v, want %v", got, 0.50*NScfKpointsFactor)
	}
	if got, ok := ns.Lookup("nscf.pw.parameters.SYSTEM.occupations"); !ok || got != "tetrahedra" {
		t.Fatalf("nscf occupations = %v, want tetrahedra", got)
	}
	if _, ok := ns.Lookup("nscf.pw.parameters.SYSTEM.smearing"); ok {
		t.Fatal("nscf namespace kept the smearing setting")
	}
	if got, ok := ns.Lookup("scf.pw.parameters.SYSTEM.occupations"); !ok || got != "smearing" {
		t.Fatalf("scf occupations = %v, want smearing", got)
	}
	if got, ok := ns.Lookup("dos.code"); !ok || got != codes["dos"] {
		t.Fatalf("dos.code = %v, want %q", got, codes["dos"])
	}
	if got, ok := ns.Lookup("dos.parameters.DOS.DeltaE"); !ok || got != DeltaE {
		t.Fatalf("dos DeltaE = %v, want %v", got, DeltaE)
	}
	if got, ok := ns.Lookup("projwfc.parameters.PROJWFC.DeltaE"); !ok || got != DeltaE {
		t.Fatalf("projwfc DeltaE = %v, want %v", got, DeltaE)
	}
}

func TestRegister(t *testing.T) {
	reg := registry.New()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	entry, err := reg.Get(Name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.WorkChain != WorkChain {
		t.Fatalf("workchain = %q, want %q", entry.WorkChain, WorkChain)
	}
	if len(entry.Exclude) != 2 {
		t.Fatalf("exclude = %v, want structure and clean_workdir", entry.Exclude)
	}
}
