package store

import (
	"slices"
	"testing"
)

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		value    string
		want     []string
	}{
		{name: "nil existing", existing: nil, value: "DocumentLevel", want: []string{"DocumentLevel"}},
		{name: "append new", existing: []string{"DocumentLevel"}, value: "DomainLevel", want: []string{"DocumentLevel", "DomainLevel"}},
		{name: "present value", existing: []string{"a.txt", "b.txt"}, value: "a.txt", want: []string{"a.txt", "b.txt"}},
		{name: "empty value", existing: []string{"a.txt"}, value: "", want: []string{"a.txt"}},
		{name: "empty value nil existing", existing: nil, value: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accumulate(tt.existing, tt.value)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Accumulate(%v, %q) = %v, want %v", tt.existing, tt.value, got, tt.want)
			}
		})
	}
}

func TestAccumulateDoesNotAlias(t *testing.T) {
	existing := make([]string, 1, 4)
	existing[0] = "a"
	got := Accumulate(existing, "b")
	got[0] = "changed"
	if existing[0] != "a" {
		t.Fatalf("Accumulate modified its input: %v", existing)
	}
}

func TestMergeProperties(t *testing.T) {
	got := MergeProperties(
		map[string]any{"层级": "1", "备注": "旧"},
		map[string]any{"层级": "2"},
	)
	if got["层级"] != "2" || got["备注"] != "旧" || len(got) != 2 {
		t.Fatalf("unexpected merge result: %v", got)
	}
}
