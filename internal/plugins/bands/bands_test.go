package bands

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
			Properties:     []string{"bands"},
		},
		Advanced: domain.AdvancedParameters{
			PW: domain.PWAdvanced{
				Pseudos: map[string]string{"Si": siPseudoRef},
			},
		},
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
	if entry.Outputs != Name {
		t.Fatalf("outputs = %q, want %q", entry.Outputs, Name)
	}
}

func TestGetBuilderRequiresPWCode(t *testing.T) {
	_, err := GetBuilder(map[string]string{}, testStructure(), testParams())
	if err == nil {
		t.Fatal("expected an error without a pw code")
	}
}

func TestGetBuilderNamespaces(t *testing.T) {
	codes := map[string]string{"pw": "3f2a7b1e-1111-4111-8111-000000000002"}
	ns, err := GetBuilder(codes, testStructure(), testParams())
	if err != nil {
		t.Fatalf("GetBuilder: %v", err)
	}

	dist, ok := ns.Lookup("bands_kpoints_distance")
	if !ok || dist != BandsKpointsDistance {
		t.Fatalf("bands_kpoints_distance = %v, want %v", dist, BandsKpointsDistance)
	}
	if got, ok := ns.Lookup("scf.kpoints_distance"); !ok || got != 0.50 {
		t.Fatalf("scf.kpoints_distance = %v, want 0.50", got)
	}
	if got, ok := ns.Lookup("scf.pw.code"); !ok || got != codes["pw"] {
		t.Fatalf("scf.pw.code = %v, want %q", got, codes["pw"])
	}
	if got, ok := ns.Lookup("bands.pw.parameters.ELECTRONS.diagonalization"); !ok || got != "cg" {
		t.Fatalf("bands diagonalization = %v, want cg", got)
	}
	// The scf step must not inherit the bands-only tweak.
	if _, ok := ns.Lookup("scf.pw.parameters.ELECTRONS.diagonalization"); ok {
		t.Fatal("scf namespace inherited the bands diagonalization override")
	}
}
