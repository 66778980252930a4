package domain

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkchainParameters is the `workchain` section of a parameters document.
type WorkchainParameters struct {
	Protocol       string   `yaml:"protocol" json:"protocol"`
	RelaxType      string   `yaml:"relax_type" json:"relax_type"`
	ElectronicType string   `yaml:"electronic_type" json:"electronic_type"`
	SpinType       string   `yaml:"spin_type" json:"spin_type"`
	Properties     []string `yaml:"properties" json:"properties"`
}

// PWAdvanced carries per-code overrides for pw.x sub-workflows.
type PWAdvanced struct {
	// Pseudos maps every chemical species of the structure to a
	// pseudopotential node reference (UUID).
	Pseudos map[string]string `yaml:"pseudos" json:"pseudos"`
	// Parameters is merged verbatim over the protocol defaults.
	Parameters Namespace `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// AdvancedParameters is the `advanced` section of a parameters document.
type AdvancedParameters struct {
	PW                     PWAdvanced         `yaml:"pw" json:"pw"`
	InitialMagneticMoments map[string]float64 `yaml:"initial_magnetic_moments,omitempty" json:"initial_magnetic_moments,omitempty"`
	CleanWorkdir           bool               `yaml:"clean_workdir" json:"clean_workdir"`
	KpointsDistance        float64            `yaml:"kpoints_distance,omitempty" json:"kpoints_distance,omitempty"`
}

// Resources describes the compute allocation selected for one run.
type Resources struct {
	NumMachines            int `yaml:"num_machines" json:"num_machines"`
	NumMPIProcsPerMachine  int `yaml:"num_mpiprocs_per_machine" json:"num_mpiprocs_per_machine"`
	NumPools               int `yaml:"npools" json:"npools"`
}

// ParametersDocument is the full document collected before submission.
// The `codes` and `resources` sections are added by the caller; `workchain`
// and `advanced` come from the configuration step.
type ParametersDocument struct {
	Workchain WorkchainParameters `yaml:"workchain" json:"workchain"`
	Advanced  AdvancedParameters  `yaml:"advanced" json:"advanced"`
	Codes     map[string]string   `yaml:"codes,omitempty" json:"codes,omitempty"`
	Resources Resources           `yaml:"resources,omitempty" json:"resources,omitempty"`
}

func (p *ParametersDocument) Validate() error {
	if p == nil {
		return errors.New("parameters document is required")
	}
	if _, ok := ParseProtocol(p.Workchain.Protocol); !ok {
		return fmt.Errorf("unknown protocol %q", p.Workchain.Protocol)
	}
	if _, ok := ParseRelaxType(p.Workchain.RelaxType); !ok {
		return fmt.Errorf("unknown relax type %q", p.Workchain.RelaxType)
	}
	if _, ok := ParseElectronicType(p.Workchain.ElectronicType); !ok {
		return fmt.Errorf("unknown electronic type %q", p.Workchain.ElectronicType)
	}
	if _, ok := ParseSpinType(p.Workchain.SpinType); !ok {
		return fmt.Errorf("unknown spin type %q", p.Workchain.SpinType)
	}
	return nil
}

// Clone returns a deep copy of the document via a YAML round-trip, so the
// copy shares no mutable state with the original.
func (p *ParametersDocument) Clone() (*ParametersDocument, error) {
	if p == nil {
		return nil, errors.New("parameters document is required")
	}
	blob, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("clone parameters: %w", err)
	}
	var out ParametersDocument
	if err := yaml.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("clone parameters: %w", err)
	}
	return &out, nil
}

// Snapshot serializes the document for write-once persistence as run
// metadata. The snapshot is never reparsed by the control plane.
func (p *ParametersDocument) Snapshot() ([]byte, error) {
	if p == nil {
		return nil, errors.New("parameters document is required")
	}
	return yaml.Marshal(p)
}

// HasProperty reports whether name is among the selected properties.
func (p *ParametersDocument) HasProperty(name string) bool {
	if p == nil {
		return false
	}
	name = strings.TrimSpace(name)
	for _, property := range p.Workchain.Properties {
		if property == name {
			return true
		}
	}
	return false
}
