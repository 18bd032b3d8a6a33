package metrics

import "testing"

// TestPersistable verifies only successful snapshots with rows persist.
func TestPersistable(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
		want bool
	}{
		{"nil snapshot", nil, false},
		{"failed collection", &Snapshot{Code: CodeFail, Rows: []Row{{}}}, false},
		{"no rows", &Snapshot{Code: CodeSuccess}, false},
		{"success with rows", &Snapshot{Code: CodeSuccess, Rows: []Row{{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Persistable(); got != tt.want {
				t.Errorf("Persistable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLabelSignature verifies the signature is canonical, ignores empty
// and sentinel label values, and omits empty sets entirely.
func TestLabelSignature(t *testing.T) {
	fields := []Field{
		{Name: "core", Type: TypeString, Label: true},
		{Name: "usage", Type: TypeNumber},
		{Name: "socket", Type: TypeString, Label: true},
	}

	tests := []struct {
		name string
		row  Row
		want string
	}{
		{"both labels", Row{Columns: []string{"0", "42.5", "1"}}, `{"core":"0","socket":"1"}`},
		{"one label empty", Row{Columns: []string{"0", "42.5", ""}}, `{"core":"0"}`},
		{"sentinel ignored", Row{Columns: []string{NullValue, "42.5", NullValue}}, ""},
		{"no labels at all", Row{Columns: []string{"", "42.5", ""}}, ""},
		{"short row", Row{Columns: []string{"0"}}, `{"core":"0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelSignature(fields, tt.row); got != tt.want {
				t.Errorf("LabelSignature() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLabelSignature_Deterministic verifies field order does not change
// the signature.
func TestLabelSignature_Deterministic(t *testing.T) {
	a := LabelSignature(
		[]Field{{Name: "core", Label: true}, {Name: "socket", Label: true}},
		Row{Columns: []string{"0", "1"}},
	)
	b := LabelSignature(
		[]Field{{Name: "socket", Label: true}, {Name: "core", Label: true}},
		Row{Columns: []string{"1", "0"}},
	)
	if a != b {
		t.Errorf("signatures differ for equal label sets: %q vs %q", a, b)
	}
}
