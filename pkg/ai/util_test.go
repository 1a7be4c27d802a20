package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type entity struct {
		Name  string `json:"name"`
		Level int    `json:"level,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  entity
	}{
		{
			name:  "valid json object",
			input: `{"name":"线索管理"}`,
			want:  entity{Name: "线索管理"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{name: '线索管理', level: 1}`,
			want:  entity{Name: "线索管理", Level: 1},
		},
		{
			name:  "trailing comma",
			input: `{"name":"线索管理",}`,
			want:  entity{Name: "线索管理"},
		},
		{
			name:  "missing end bracket",
			input: `{"name":"线索管理"`,
			want:  entity{Name: "线索管理"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{name: '线索管理'}"`,
			want:  entity{Name: "线索管理"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"name\": \"线索管理\"\n}\n",
			want:  entity{Name: "线索管理"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got entity
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_PythonDictLiteral(t *testing.T) {
	var got map[string]any
	if err := UnmarshalFlexible(`{'主体': '某案', '谓词': '涉及', '客体': '张三'}`, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got["主体"] != "某案" || got["谓词"] != "涉及" || got["客体"] != "张三" {
		t.Fatalf("UnmarshalFlexible() got = %v", got)
	}
}

func TestUnmarshalFlexible_ExtractionPayload(t *testing.T) {
	input := `{"extractions": [{"人员": "张三", "人员_attributes": {"职务": "科长"}},]}`
	var got struct {
		Extractions []map[string]any `json:"extractions"`
	}
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got.Extractions) != 1 || got.Extractions[0]["人员"] != "张三" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "bare fence", input: "```\n[1, 2]\n```\n", want: `[1, 2]`},
		{name: "no fence", input: "  {\"a\": 1}  ", want: `{"a": 1}`},
		{name: "fence on one line", input: "```{\"a\": 1}```", want: `{"a": 1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.input); got != tc.want {
				t.Fatalf("StripCodeFence() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateSchemaDisallowsAdditionalProperties(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	schema := GenerateSchema(&payload{})
	if schema == nil {
		t.Fatal("GenerateSchema() returned nil")
	}
}
