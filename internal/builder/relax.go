package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/protocol"
)

// ErrMissingPseudo is returned when a chemical species of the structure has
// no pseudopotential reference in the parameters document.
var ErrMissingPseudo = errors.New("missing pseudopotential")

// ResolvePseudos maps every species of the structure to its pseudopotential
// node reference, validating each reference.
func ResolvePseudos(structure *domain.StructureData, pseudos map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(structure.Sites))
	for _, species := range structure.Species() {
		ref, ok := pseudos[species]
		if !ok {
			return nil, fmt.Errorf("%w for species %s", ErrMissingPseudo, species)
		}
		parsed, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("pseudopotential for species %s: invalid reference %q: %w", species, ref, err)
		}
		resolved[species] = parsed.String()
	}
	return resolved, nil
}

// PWNamespace builds a pw.x input namespace seeded from the protocol preset
// for the given calculation kind ("scf", "relax", "vc-relax", "nscf",
// "bands"). The relaxation sub-builder and the property plugins all start
// from this shape.
func PWNamespace(preset protocol.Preset, params *domain.ParametersDocument, structure *domain.StructureData, codeRef, calculation string) (domain.Namespace, error) {
	resolvedPseudos, err := ResolvePseudos(structure, params.Advanced.PW.Pseudos)
	if err != nil {
		return nil, err
	}

	numSites := float64(structure.NumSites())
	system := domain.Namespace{
		"ecutwfc": preset.EcutWfc,
		"ecutrho": preset.EcutRho,
	}
	electronicType, _ := domain.ParseElectronicType(params.Workchain.ElectronicType)
	if electronicType == domain.ElectronicTypeInsulator {
		system["occupations"] = "fixed"
	} else {
		system["occupations"] = preset.Occupations
		system["smearing"] = preset.Smearing
		system["degauss"] = preset.Degauss
	}
	spinType, _ := domain.ParseSpinType(params.Workchain.SpinType)
	if spinType == domain.SpinTypeCollinear {
		system["nspin"] = 2
		magnetization := domain.Namespace{}
		for species, moment := range params.Advanced.InitialMagneticMoments {
			magnetization[species] = moment
		}
		system["starting_magnetization"] = magnetization
	}

	pwParameters := domain.Namespace{
		"CONTROL": domain.Namespace{
			"calculation":   calculation,
			"etot_conv_thr": preset.EtotConvThrPerAtom * numSites,
			"forc_conv_thr": preset.ForcConvThr,
		},
		"SYSTEM": system,
		"ELECTRONS": domain.Namespace{
			"conv_thr":         preset.ConvThrPerAtom * numSites,
			"mixing_beta":      preset.MixingBeta,
			"electron_maxstep": preset.ElectronMaxstep,
		},
	}

	pw := domain.Namespace{
		"code":       codeRef,
		"pseudos":    resolvedPseudos,
		"parameters": pwParameters,
		"metadata": domain.Namespace{
			"options": domain.Namespace{
				"resources": domain.Namespace{},
			},
		},
	}
	if overrides := params.Advanced.PW.Parameters; overrides != nil {
		pwParameters.Merge(overrides)
	}
	return pw, nil
}

// relaxNamespace builds the relaxation sub-builder from the chosen protocol
// with the advanced parameters as overrides. Only the base namespace is
// populated: the structure and the cleanup flag belong to the top-level
// builder, and the trailing single-point recomputation stays disabled.
func relaxNamespace(params *domain.ParametersDocument, structure *domain.StructureData, codes map[string]string) (domain.Namespace, error) {
	protocolName, _ := domain.ParseProtocol(params.Workchain.Protocol)
	preset, err := protocol.Load(protocolName)
	if err != nil {
		return nil, err
	}

	relaxType, _ := domain.ParseRelaxType(params.Workchain.RelaxType)
	calculation := "scf"
	switch relaxType {
	case domain.RelaxTypePositions:
		calculation = "relax"
	case domain.RelaxTypePositionsCell:
		calculation = "vc-relax"
	}

	pw, err := PWNamespace(preset, params, structure, codes["pw"], calculation)
	if err != nil {
		return nil, fmt.Errorf("relax sub-builder: %w", err)
	}

	ns := domain.Namespace{
		"base": domain.Namespace{
			"pw":               pw,
			"kpoints_distance": preset.KpointsDistance,
		},
	}
	if params.Advanced.KpointsDistance > 0 {
		ns.SetPath("base.kpoints_distance", params.Advanced.KpointsDistance)
	}
	return ns, nil
}
