package builder

import (
	"strconv"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

// applyResources post-processes the parallelization and scheduler resource
// fields into every namespace present on the builder. Namespaces not
// present are left untouched. The dos CPU allocation is always capped at
// the per-pool limit on a single machine, independent of the general
// resource pass; every other `resources` leaf is merged last so the
// general pass never overwrites a specialization made before it.
func (f *Factory) applyResources(b *Builder, res domain.Resources) {
	if res.NumMachines <= 0 || res.NumMPIProcsPerMachine <= 0 {
		return
	}
	npools := res.NumPools
	if npools <= 0 {
		npools = 1
	}
	general := domain.Namespace{
		"num_machines":             res.NumMachines,
		"num_mpiprocs_per_machine": res.NumMPIProcsPerMachine,
	}

	root := domain.Namespace{"relax": b.Relax}
	for name, ns := range b.Plugins {
		root[name] = ns
	}
	f.updateResources(root, general, res, npools)
}

func (f *Factory) updateResources(ns domain.Namespace, general domain.Namespace, res domain.Resources, npools int) {
	for key := range ns {
		child := ns.Child(key)
		if child == nil {
			continue
		}
		switch {
		case key == "pw" && child["pseudos"] != nil:
			child["parallelization"] = domain.Namespace{"npool": npools}
		case key == "projwfc":
			child.SetPath("settings.cmdline", []string{"-nk", strconv.Itoa(npools)})
		case key == "dos":
			capped := res.NumMPIProcsPerMachine
			if capped > f.maxMPIPerPool {
				capped = f.maxMPIPerPool
			}
			child.SetPath("metadata.options.resources", domain.Namespace{
				"num_machines":             1,
				"num_mpiprocs_per_machine": capped,
			})
			// Skip recursion so the general pass cannot override the cap.
			continue
		}
		if key == "resources" {
			ns[key] = general.Clone()
			continue
		}
		f.updateResources(child, general, res, npools)
	}
}
