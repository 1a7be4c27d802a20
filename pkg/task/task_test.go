package task

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleTask = `
name: 案件要素
prompt: 请从以下案件文本中提取实体和关系。
schema:
  nodes:
    - entity: 人员
      attributes: [角色]
    - entity: 机构
  edges:
    - relation: 起诉
      subject: 人员
      predicate: 起诉
      object: 人员
examples:
  - text: 张三起诉李四。
    nodes:
      - extraction_class: 人员
        extraction_text: 张三
        attributes: {角色: 原告}
    edges:
      - extraction_class: 关系
        extraction_text: 张三起诉李四
        attributes: {主体: 张三, 谓词: 起诉, 客体: 李四}
config:
  model_id: test-model
  api_key: ${LEXGRAPH_TEST_KEY}
  max_workers: 2
`

func TestParse(t *testing.T) {
	t.Setenv("LEXGRAPH_TEST_KEY", "secret")

	task, err := Parse([]byte(sampleTask))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if task.Name != "案件要素" {
		t.Fatalf("unexpected name %q", task.Name)
	}
	if len(task.Schema.Nodes) != 2 || task.Schema.Nodes[0].Attributes[0] != "角色" {
		t.Fatalf("unexpected node types: %+v", task.Schema.Nodes)
	}
	if len(task.Schema.Edges) != 1 || task.Schema.Edges[0].Predicate != "起诉" {
		t.Fatalf("unexpected edge types: %+v", task.Schema.Edges)
	}

	if len(task.Examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(task.Examples))
	}
	ex := task.Examples[0]
	if ex.Nodes[0].Attributes["角色"] != "原告" {
		t.Fatalf("unexpected node attributes: %#v", ex.Nodes[0].Attributes)
	}
	if ex.Edges[0].Attributes["客体"] != "李四" {
		t.Fatalf("unexpected edge attributes: %#v", ex.Edges[0].Attributes)
	}

	if task.Config.ModelID != "test-model" || task.Config.APIKey != "secret" {
		t.Fatalf("unexpected config: %+v", task.Config)
	}
	if task.Config.MaxWorkers != 2 {
		t.Fatalf("expected max_workers override, got %d", task.Config.MaxWorkers)
	}
	if task.Config.MaxCharBuffer != 500 || task.Config.Temperature != 0.3 {
		t.Fatalf("expected graph defaults to survive, got %+v", task.Config)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "no prompt", yaml: "schema:\n  nodes:\n    - entity: 人员\n"},
		{name: "no nodes", yaml: "prompt: 提取\n"},
		{name: "empty entity", yaml: "prompt: 提取\nschema:\n  nodes:\n    - attributes: [a]\n"},
		{name: "incomplete edge", yaml: "prompt: 提取\nschema:\n  nodes:\n    - entity: 人员\n  edges:\n    - relation: 起诉\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidTask) {
				t.Fatalf("expected ErrInvalidTask, got %v", err)
			}
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("prompt: [unclosed")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(path, []byte(sampleTask), 0o644); err != nil {
		t.Fatalf("write task: %v", err)
	}

	task, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if task.Prompt == "" {
		t.Fatal("expected prompt to be loaded")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDirGet(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "case.yaml"), []byte(sampleTask), 0o644); err != nil {
		t.Fatalf("write task: %v", err)
	}
	d := Dir(dir)

	task, err := d.Get("case")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if task.Name != "案件要素" {
		t.Fatalf("unexpected task %q", task.Name)
	}

	if _, err := d.Get("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	for _, name := range []string{"", "../case", "a/b", `a\b`} {
		if _, err := d.Get(name); !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("Get(%q) = %v, want ErrInvalidTask", name, err)
		}
	}
}
