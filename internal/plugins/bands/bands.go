// Package bands registers the electronic band structure property plugin.
package bands

import (
	"errors"
	"fmt"

	"github.com/PNOGillespie/aiidalab-qe/internal/builder"
	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/protocol"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
)

const (
	// Name is the plugin key and namespace.
	Name = "bands"
	// WorkChain is the process type submitted to the execution engine.
	WorkChain = "quantumespresso.pw.bands"
)

// BandsKpointsDistance is the linear density of the band path sampling.
const BandsKpointsDistance = 0.025

// Register installs the plugin into the registry.
func Register(reg *registry.Registry) error {
	return reg.Register(Name, WorkChain, []string{"structure", "clean_workdir"}, GetBuilder, Name)
}

// GetBuilder constructs the bands sub-builder from a private copy of the
// parameters document.
func GetBuilder(codes map[string]string, structure *domain.StructureData, params *domain.ParametersDocument) (domain.Namespace, error) {
	pwCode, ok := codes["pw"]
	if !ok || pwCode == "" {
		return nil, errors.New("bands requires a pw code")
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
	bandsPW, err := builder.PWNamespace(preset, params, structure, pwCode, "bands")
	if err != nil {
		return nil, fmt.Errorf("bands namespace: %w", err)
	}
	// The bands step recomputes nothing self-consistently.
	bandsPW.SetPath("parameters.ELECTRONS.diagonalization", "cg")

	return domain.Namespace{
		"scf": domain.Namespace{
			"pw":               scfPW,
			"kpoints_distance": preset.KpointsDistance,
		},
		"bands": domain.Namespace{
			"pw": bandsPW,
		},
		"bands_kpoints_distance": BandsKpointsDistance,
	}, nil
}
