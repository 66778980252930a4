package builder

import (
	"reflect"
	"testing"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
)

func resourcesFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()
	factory, err := NewFactory(registry.New(), opts...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return factory
}

func pwNamespace() domain.Namespace {
	return domain.Namespace{
		"code":    pwCodeRef,
		"pseudos": map[string]string{"Si": siPseudoRef},
		"metadata": domain.Namespace{
			"options": domain.Namespace{
				"resources": domain.Namespace{},
			},
		},
	}
}

func TestApplyResources(t *testing.T) {
	factory := resourcesFactory(t)
	b := &Builder{
		Relax: domain.Namespace{
			"base": domain.Namespace{"pw": pwNamespace()},
		},
		Plugins: map[string]domain.Namespace{
			"pdos": {
				"nscf": domain.Namespace{"pw": pwNamespace()},
				"dos": domain.Namespace{
					"code": "x",
					"metadata": domain.Namespace{
						"options": domain.Namespace{"resources": domain.Namespace{}},
					},
				},
				"projwfc": domain.Namespace{
					"code": "y",
					"metadata": domain.Namespace{
						"options": domain.Namespace{"resources": domain.Namespace{}},
					},
				},
			},
		},
	}

	factory.applyResources(b, domain.Resources{
		NumMachines:           2,
		NumMPIProcsPerMachine: 8,
		NumPools:              2,
	})

	if got, ok := b.Relax.Lookup("base.pw.parallelization.npool"); !ok || got != 2 {
		t.Fatalf("relax npool = %v, want 2", got)
	}
	wantGeneral := domain.Namespace{
		"num_machines":             2,
		"num_mpiprocs_per_machine": 8,
	}
	got, ok := b.Relax.Lookup("base.pw.metadata.options.resources")
	if !ok || !reflect.DeepEqual(got, wantGeneral) {
		t.Fatalf("relax resources = %v, want %v", got, wantGeneral)
	}

	pdos := b.Plugins["pdos"]
	if got, ok := pdos.Lookup("nscf.pw.parallelization.npool"); !ok || got != 2 {
		t.Fatalf("nscf npool = %v, want 2", got)
	}
	cmdline, ok := pdos.Lookup("projwfc.settings.cmdline")
	if !ok || !reflect.DeepEqual(cmdline, []string{"-nk", "2"}) {
		t.Fatalf("projwfc cmdline = %v, want [-nk 2]", cmdline)
	}
	wantDOS := domain.Namespace{
		"num_machines":             1,
		"num_mpiprocs_per_machine": 8,
	}
	dosRes, ok := pdos.Lookup("dos.metadata.options.resources")
	if !ok || !reflect.DeepEqual(dosRes, wantDOS) {
		t.Fatalf("dos resources = %v, want %v", dosRes, wantDOS)
	}
}

func TestApplyResourcesDOSCap(t *testing.T) {
	factory := resourcesFactory(t, WithMaxMPIPerPool(20))
	b := &Builder{
		Relax: domain.Namespace{},
		Plugins: map[string]domain.Namespace{
			"pdos": {
				"dos": domain.Namespace{
					"code": "x",
					"metadata": domain.Namespace{
						"options": domain.Namespace{"resources": domain.Namespace{}},
					},
				},
			},
		},
	}

	factory.applyResources(b, domain.Resources{
		NumMachines:           1,
		NumMPIProcsPerMachine: 32,
		NumPools:              1,
	})

	want := domain.Namespace{
		"num_machines":             1,
		"num_mpiprocs_per_machine": 20,
	}
	got, ok := b.Plugins["pdos"].Lookup("dos.metadata.options.resources")
	if !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("dos resources = %v, want %v", got, want)
	}
}

func TestApplyResourcesNoAllocation(t *testing.T) {
	factory := resourcesFactory(t)
	b := &Builder{
		Relax: domain.Namespace{
			"base": domain.Namespace{"pw": pwNamespace()},
		},
		Plugins: map[string]domain.Namespace{},
	}

	factory.applyResources(b, domain.Resources{})

	if _, ok := b.Relax.Lookup("base.pw.parallelization"); ok {
		t.Fatal("resource pass touched the builder without an allocation")
	}
}
