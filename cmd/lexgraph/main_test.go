package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestOutlineCommand(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "memory")
	path := filepath.Join(t.TempDir(), "outline.txt")
	if err := os.WriteFile(path, []byte("1. 立案\n（1）受理\n2. 结案\n"), 0o644); err != nil {
		t.Fatalf("write outline: %v", err)
	}

	out, err := run(t, "outline", path, "--tag", "case")
	if err != nil {
		t.Fatalf("outline returned error: %v", err)
	}

	var res merge.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if res.Nodes != 4 || res.Edges != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestOutlineCommandMissingFile(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "memory")
	if _, err := run(t, "outline", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected an error for a missing outline")
	}
}

func TestDeleteCommand(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "memory")

	out, err := run(t, "delete", "--tag", "case")
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if !strings.Contains(out, "Deleted graph case") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "delete", "--tag", "bad-tag"); err == nil {
		t.Fatal("expected an error for an invalid tag")
	}
}

func TestClearCommandNeedsConfirmation(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "memory")

	if _, err := run(t, "clear"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	out, err := run(t, "clear", "--yes")
	if err != nil {
		t.Fatalf("clear returned error: %v", err)
	}
	if !strings.Contains(out, "Cleared all graphs") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExtractCommandRejectsUnsupportedFormat(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "memory")
	dir := t.TempDir()
	taskPath := filepath.Join(dir, "task.yaml")
	if err := os.WriteFile(taskPath, []byte("prompt: 提取\nschema:\n  nodes:\n    - entity: 人员\n"), 0o644); err != nil {
		t.Fatalf("write task: %v", err)
	}

	if _, err := run(t, "extract", "--task", taskPath, filepath.Join(dir, "a.pdf")); err == nil {
		t.Fatal("expected an error for a pdf")
	}
	if _, err := run(t, "extract", filepath.Join(dir, "a.txt")); err == nil {
		t.Fatal("expected an error without --task")
	}
}
