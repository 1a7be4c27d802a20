package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizePostgresValue(t *testing.T) {
	in := map[string]any{
		"角色\x00": "原\x00告",
		"list":   []any{"a\x00", 1, map[string]any{"k": "v\x00"}},
		"names":  []string{"张\x00三"},
		"n":      3.5,
	}

	got, ok := SanitizePostgresValue(in).(map[string]any)
	if !ok {
		t.Fatalf("expected a map, got %T", got)
	}
	if got["角色"] != "原告" {
		t.Fatalf("unexpected sanitized entry: %#v", got)
	}
	list := got["list"].([]any)
	if list[0] != "a" || list[1] != 1 || list[2].(map[string]any)["k"] != "v" {
		t.Fatalf("unexpected sanitized list: %#v", list)
	}
	if got["names"].([]string)[0] != "张三" || got["n"] != 3.5 {
		t.Fatalf("unexpected values: %#v", got)
	}
	if in["角色\x00"] != "原\x00告" {
		t.Fatal("input must not be modified")
	}
}
