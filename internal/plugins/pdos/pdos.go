// Package pdos registers the projected density of states property plugin.
package pdos

import (
	"errors"
	"fmt"

	"github.com/PNOGillespie/aiidalab-qe/internal/builder"
	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/protocol"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
)

const (
	Name      = "pdos"
	WorkChain = "quantumespresso.pdos"
)

// DeltaE is the energy grid step (eV) shared by dos.x and projwfc.x so
// their outputs line up point by point.
const DeltaE = 0.02

// NScfKpointsFactor densifies the k-point mesh of the nscf step relative
// to the protocol default.
const NScfKpointsFactor = 0.5

// Register installs the plugin into the registry.
func Register(reg *registry.Registry) error {
	return reg.Register(Name, WorkChain, []string{"structure", "clean_workdir"}, GetBuilder, Name)
}

// GetBuilder constructs the pdos sub-builder. The plugin needs all three
// codes: pw.x for scf+nscf, dos.x and projwfc.x for the post-processing.
func GetBuilder(codes map[string]string, structure *domain.StructureData, params *domain.ParametersDocument) (domain.Namespace, error) {
	pwCode := codes["pw"]
	dosCode := codes["dos"]
	projwfcCode := codes["projwfc"]
	if pwCode == "" || dosCode == "" || projwfcCode == "" {
		return nil, errors.New("pdos requires pw, dos and projwfc codes")
	}
	protocolName, _ := domain.ParseProtocol(params.Workchain.Protocol)
	preset, err := protocol.Load(protocolName)
	if err != nil {
		return nil, err
	}

	scfPW, err := builder.PWNamespace(preset, params, structure, pwCode, "scf")
	if err != nil {
		return nil, fmt.Errorf("scf namespace: %w", err)
	}
	nscfPW, err := builder.PWNamespace(preset, params, structure, pwCode, "nscf")
	if err != nil {
		return nil, fmt.Errorf("nscf namespace: %w", err)
	}
	// The nscf step needs tetrahedra occupations on a denser mesh.
	nscfPW.SetPath("parameters.SYSTEM.occupations", "tetrahedra")
	nscfParameters := nscfPW.Child("parameters")
	delete(nscfParameters.Child("SYSTEM"), "smearing")
	delete(nscfParameters.Child("SYSTEM"), "degauss")

	return domain.Namespace{
		"scf": domain.Namespace{
			"pw":               scfPW,
			"kpoints_distance": preset.KpointsDistance,
		},
		"nscf": domain.Namespace{
			"pw":               nscfPW,
			"kpoints_distance": preset.KpointsDistance * NScfKpointsFactor,
		},
		"dos": domain.Namespace{
			"code": dosCode,
			"parameters": domain.Namespace{
				"DOS": domain.Namespace{"DeltaE": DeltaE},
			},
			"metadata": domain.Namespace{
				"options": domain.Namespace{
					"resources": domain.Namespace{},
				},
			},
		},
		"projwfc": domain.Namespace{
			"code": projwfcCode,
			"parameters": domain.Namespace{
				"PROJWFC": domain.Namespace{"DeltaE": DeltaE},
			},
			"metadata": domain.Namespace{
				"options": domain.Namespace{
					"resources": domain.Namespace{},
				},
			},
		},
	}, nil
}
