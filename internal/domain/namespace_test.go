package domain

import (
	"reflect"
	"testing"
)

func TestNamespaceCloneIsDeep(t *testing.T) {
	original := Namespace{
		"pw": Namespace{
			"pseudos": map[string]string{"Si": "uuid-1"},
			"parameters": Namespace{
				"SYSTEM": Namespace{"ecutwfc": 30.0},
			},
		},
	}
	clone := original.Clone()

	clone.Child("pw").Child("parameters").Child("SYSTEM")["ecutwfc"] = 90.0
	clone.Child("pw")["pseudos"].(map[string]string)["Si"] = "uuid-2"

	got, _ := original.Lookup("pw.parameters.SYSTEM.ecutwfc")
	if got != 30.0 {
		t.Fatalf("clone mutation leaked into original: ecutwfc=%v", got)
	}
	if original.Child("pw")["pseudos"].(map[string]string)["Si"] != "uuid-1" {
		t.Fatalf("clone mutation leaked into original pseudos")
	}
}

func TestNamespaceMergeNested(t *testing.T) {
	base := Namespace{
		"pw": Namespace{
			"parameters": Namespace{
				"SYSTEM": Namespace{"ecutwfc": 30.0, "occupations": "smearing"},
			},
		},
	}
	base.Merge(Namespace{
		"pw": Namespace{
			"parameters": Namespace{
				"SYSTEM": Namespace{"ecutwfc": 50.0},
			},
		},
		"kpoints_distance": 0.15,
	})

	if got, _ := base.Lookup("pw.parameters.SYSTEM.ecutwfc"); got != 50.0 {
		t.Fatalf("ecutwfc=%v, want 50.0", got)
	}
	if got, _ := base.Lookup("pw.parameters.SYSTEM.occupations"); got != "smearing" {
		t.Fatalf("merge dropped sibling key: occupations=%v", got)
	}
	if got, _ := base.Lookup("kpoints_distance"); got != 0.15 {
		t.Fatalf("kpoints_distance=%v, want 0.15", got)
	}
}

func TestNamespaceSetPathAndLookup(t *testing.T) {
	ns := Namespace{}
	ns.SetPath("metadata.options.resources", Namespace{"num_machines": 1})

	got, ok := ns.Lookup("metadata.options.resources")
	if !ok {
		t.Fatalf("path not found after SetPath")
	}
	if !reflect.DeepEqual(got, Namespace{"num_machines": 1}) {
		t.Fatalf("resources=%v", got)
	}
	if _, ok := ns.Lookup("metadata.missing.resources"); ok {
		t.Fatalf("expected missing path to report absent")
	}
}
