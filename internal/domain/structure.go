package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Site is a single atomic site of a structure.
type Site struct {
	Kind     string     `yaml:"kind" json:"kind"`
	Symbol   string     `yaml:"symbol" json:"symbol"`
	Position [3]float64 `yaml:"position" json:"position"`
}

// StructureData is the opaque geometry handle consumed by the builder and
// the orchestrator. The numerical meaning of the cell and positions is the
// concern of the execution engine, not of this control plane.
type StructureData struct {
	ID    string        `yaml:"id" json:"id"`
	Cell  [3][3]float64 `yaml:"cell" json:"cell"`
	Sites []Site        `yaml:"sites" json:"sites"`
}

func (s *StructureData) Validate() error {
	if s == nil {
		return errors.New("structure is required")
	}
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("structure id is required")
	}
	if len(s.Sites) == 0 {
		return errors.New("structure has no sites")
	}
	for i, site := range s.Sites {
		if strings.TrimSpace(site.Symbol) == "" {
			return fmt.Errorf("site[%d] symbol is required", i)
		}
	}
	return nil
}

func (s *StructureData) NumSites() int {
	if s == nil {
		return 0
	}
	return len(s.Sites)
}

// Species returns the unique kind names of the structure in order of first
// appearance. Kind names default to the chemical symbol when unset.
func (s *StructureData) Species() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.Sites))
	out := make([]string, 0, len(s.Sites))
	for _, site := range s.Sites {
		kind := site.Kind
		if kind == "" {
			kind = site.Symbol
		}
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	return out
}

// Formula returns a reduced chemical formula such as "Si2" or "LiCoO2",
// with element symbols in alphabetical order.
func (s *StructureData) Formula() string {
	if s == nil || len(s.Sites) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, site := range s.Sites {
		counts[site.Symbol]++
	}
	symbols := make([]string, 0, len(counts))
	for symbol := range counts {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	var b strings.Builder
	for _, symbol := range symbols {
		b.WriteString(symbol)
		if counts[symbol] > 1 {
			fmt.Fprintf(&b, "%d", counts[symbol])
		}
	}
	return b.String()
}
