package domain

import (
	"reflect"
	"testing"
)

func TestStructureFormula(t *testing.T) {
	structure := &StructureData{
		ID: "s-1",
		Sites: []Site{
			{Symbol: "O"},
			{Symbol: "Co"},
			{Symbol: "Li"},
			{Symbol: "O"},
		},
	}
	if got := structure.Formula(); got != "CoLiO2" {
		t.Fatalf("Formula()=%q, want CoLiO2", got)
	}
}

func TestStructureSpeciesFirstAppearanceOrder(t *testing.T) {
	structure := &StructureData{
		ID: "s-1",
		Sites: []Site{
			{Kind: "Fe1", Symbol: "Fe"},
			{Kind: "Fe2", Symbol: "Fe"},
			{Symbol: "O"},
			{Kind: "Fe1", Symbol: "Fe"},
		},
	}
	want := []string{"Fe1", "Fe2", "O"}
	if got := structure.Species(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Species()=%v, want %v", got, want)
	}
}

func TestStructureValidate(t *testing.T) {
	var nilStructure *StructureData
	if err := nilStructure.Validate(); err == nil {
		t.Fatalf("Validate() on nil expected error")
	}
	if err := (&StructureData{ID: "s-1"}).Validate(); err == nil {
		t.Fatalf("Validate() with no sites expected error")
	}
	if err := (&StructureData{ID: "s-1", Sites: []Site{{Symbol: "Si"}}}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}
