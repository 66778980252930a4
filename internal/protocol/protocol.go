// Package protocol loads the named calculation presets that seed default
// numerical parameters before user overrides are applied.
package protocol

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Preset is one named protocol with its pw.x defaults.
type Preset struct {
	Protocol           string  `yaml:"protocol"`
	PseudoFamily       string  `yaml:"pseudo_family"`
	KpointsDistance    float64 `yaml:"kpoints_distance"`
	EcutWfc            float64 `yaml:"ecutwfc"`
	EcutRho            float64 `yaml:"ecutrho"`
	Occupations        string  `yaml:"occupations"`
	Smearing           string  `yaml:"smearing"`
	Degauss            float64 `yaml:"degauss"`
	ConvThrPerAtom     float64 `yaml:"conv_thr_per_atom"`
	EtotConvThrPerAtom float64 `yaml:"etot_conv_thr_per_atom"`
	ForcConvThr        float64 `yaml:"forc_conv_thr"`
	MixingBeta         float64 `yaml:"mixing_beta"`
	ElectronMaxstep    int     `yaml:"electron_maxstep"`
}

var (
	loadOnce sync.Once
	loadErr  error
	presets  map[domain.Protocol]Preset
)

func loadAll() {
	presets = make(map[domain.Protocol]Preset, 3)
	for _, name := range []domain.Protocol{domain.ProtocolFast, domain.ProtocolModerate, domain.ProtocolPrecise} {
		blob, err := presetFS.ReadFile(fmt.Sprintf("presets/%s.yaml", name))
		if err != nil {
			loadErr = fmt.Errorf("read preset %s: %w", name, err)
			return
		}
		var preset Preset
		if err := yaml.Unmarshal(blob, &preset); err != nil {
			loadErr = fmt.Errorf("parse preset %s: %w", name, err)
			return
		}
		if preset.Protocol != string(name) {
			loadErr = fmt.Errorf("preset %s declares protocol %q", name, preset.Protocol)
			return
		}
		presets[name] = preset
	}
}

// Load returns the preset for the given protocol. The returned value is a
// copy; mutating it does not affect later loads.
func Load(p domain.Protocol) (Preset, error) {
	loadOnce.Do(loadAll)
	if loadErr != nil {
		return Preset{}, loadErr
	}
	preset, ok := presets[p]
	if !ok {
		return Preset{}, fmt.Errorf("unknown protocol %q", p)
	}
	return preset, nil
}
