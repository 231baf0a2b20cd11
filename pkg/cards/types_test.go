package cards

import "testing"

func TestTypeRelations(t *testing.T) {
	for _, typ := range Types() {
		if typ.Color() == "" || typ.Background() == "" || typ.Rank() == 0 {
			t.Errorf("%s is missing presentation data", typ)
		}
		if child, ok := typ.Child(); ok && child.Rank() <= typ.Rank() {
			t.Errorf("%s -> %s does not descend", typ, child)
		}
		if parent, ok := typ.Parent(); ok && parent.Rank() >= typ.Rank() {
			t.Errorf("%s -> %s does not ascend", typ, parent)
		}
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		fields map[string]string
		want   Type
	}{
		{nil, DefaultType},
		{map[string]string{FieldCardType: "Experiment"}, Experiment},
		{map[string]string{FieldCardType: "Epic"}, DefaultType},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.fields); got != tt.want {
			t.Errorf("TypeOf(%v) = %s, want %s", tt.fields, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", StatusNone, false},
		{"none", StatusNone, false},
		{"In progress", StatusInProgress, false},
		{"Finished", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, %v", tt.in, got, err)
		}
	}
	if StatusDone.Color() == "" || StatusNone.Color() != "" {
		t.Error("unexpected status colors")
	}
}
