package runs

import "testing"

func TestGenerateLabel(t *testing.T) {
	cases := []struct {
		name       string
		formula    string
		relaxType  string
		properties []string
		want       string
	}{
		{
			name:       "relaxed with properties",
			formula:    "Si2",
			relaxType:  "positions",
			properties: []string{"relax", "bands", "pdos"},
			want:       "Si2 structure is relaxed properties on bands, pdos",
		},
		{
			name:      "not relaxed without properties",
			formula:   "LiCoO2",
			relaxType: "none",
			want:      "LiCoO2 structure is not relaxed",
		},
		{
			name:       "relax filtered from listing",
			formula:    "Si2",
			relaxType:  "positions_cell",
			properties: []string{"relax"},
			want:       "Si2 structure is relaxed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateLabel(tc.formula, tc.relaxType, tc.properties)
			if got != tc.want {
				t.Fatalf("label = %q, want %q", got, tc.want)
			}
		})
	}
}
