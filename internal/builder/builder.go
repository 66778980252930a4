// Package builder assembles the full, nested input tree for one run from a
// protocol name, user overrides, and the selected codes and resources.
package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/parallel"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
)

// Builder is the assembled configuration tree for one whole run. Plugin
// namespaces that were not selected are entirely absent, so the execution
// engine never attempts to run them.
type Builder struct {
	Structure    *domain.StructureData
	CleanWorkdir bool
	// Properties is the effective selection recorded on the builder so the
	// orchestrator can recompute its run flags without reparsing the
	// original document.
	Properties []string
	Relax      domain.Namespace
	Plugins    map[string]domain.Namespace
}

// HasPlugin reports whether the namespace for name is present on this run.
func (b *Builder) HasPlugin(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.Plugins[name]
	return ok
}

// Factory builds Builders against one plugin registry.
type Factory struct {
	reg           *registry.Registry
	maxMPIPerPool int
}

// Option customizes the factory.
type Option func(*Factory)

// WithMaxMPIPerPool overrides the hard per-pool task cap.
func WithMaxMPIPerPool(limit int) Option {
	return func(f *Factory) {
		if limit > 0 {
			f.maxMPIPerPool = limit
		}
	}
}

func NewFactory(reg *registry.Registry, opts ...Option) (*Factory, error) {
	if reg == nil {
		return nil, errors.New("plugin registry is required")
	}
	factory := &Factory{reg: reg, maxMPIPerPool: parallel.MaxMPIPerPool}
	for _, opt := range opts {
		opt(factory)
	}
	return factory, nil
}

// Build produces the full configuration tree for one run. The codes
// argument may be nil, in which case the document's own codes section is
// used. Any malformed sub-document fails fast; no partial builder is ever
// returned.
func (f *Factory) Build(structure *domain.StructureData, params *domain.ParametersDocument, codes map[string]string) (*Builder, error) {
	if f == nil || f.reg == nil {
		return nil, errors.New("builder factory not initialized")
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Work on a private copy: properties and codes are consumed, not
	// forwarded verbatim.
	doc, err := params.Clone()
	if err != nil {
		return nil, err
	}
	properties := doc.Workchain.Properties
	doc.Workchain.Properties = nil
	if codes == nil {
		codes = doc.Codes
	}
	doc.Codes = nil
	resolvedCodes, err := resolveCodes(codes)
	if err != nil {
		return nil, err
	}

	relax, err := relaxNamespace(doc, structure, resolvedCodes)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		Structure:    structure,
		CleanWorkdir: doc.Advanced.CleanWorkdir,
		Properties:   append([]string(nil), properties...),
		Relax:        relax,
		Plugins:      make(map[string]domain.Namespace),
	}

	selected := make(map[string]struct{}, len(properties))
	for _, name := range properties {
		selected[name] = struct{}{}
	}
	for _, entry := range f.reg.All() {
		if _, ok := selected[entry.Name]; !ok {
			continue
		}
		pluginDoc, err := doc.Clone()
		if err != nil {
			return nil, err
		}
		ns, err := entry.GetBuilder(resolvedCodes, structure, pluginDoc)
		if err != nil {
			return nil, fmt.Errorf("plugin %s sub-builder: %w", entry.Name, err)
		}
		for _, field := range entry.Exclude {
			delete(ns, field)
		}
		b.Plugins[entry.Name] = ns
	}

	f.applyResources(b, params.Resources)
	return b, nil
}

func resolveCodes(codes map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(codes))
	for role, ref := range codes {
		if ref == "" {
			continue
		}
		parsed, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("code %s: invalid reference %q: %w", role, ref, err)
		}
		resolved[role] = parsed.String()
	}
	return resolved, nil
}
