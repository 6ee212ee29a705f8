package search

import "testing"

func TestFlattenText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain   text\n here", "plain text here"},
		{"Alcohol is a <b>depressant</b>.", "Alcohol is a depressant."},
		{"<p>First</p><p>Second</p>", "First Second"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>kept", "kept"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FlattenText(tt.in); got != tt.want {
			t.Errorf("FlattenText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
