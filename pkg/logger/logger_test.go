package logger

import (
	"reflect"
	"testing"
)

type recordingInstance struct {
	calls []recorded
}

type recorded struct {
	level   string
	message string
	keyvals []any
}

func (r *recordingInstance) add(level, message string, keyvals []any) {
	r.calls = append(r.calls, recorded{level: level, message: message, keyvals: keyvals})
}

func (r *recordingInstance) Log(m string, kv ...any)   { r.add("log", m, kv) }
func (r *recordingInstance) Debug(m string, kv ...any) { r.add("debug", m, kv) }
func (r *recordingInstance) Info(m string, kv ...any)  { r.add("info", m, kv) }
func (r *recordingInstance) Warn(m string, kv ...any)  { r.add("warn", m, kv) }
func (r *recordingInstance) Error(m string, kv ...any) { r.add("error", m, kv) }
func (r *recordingInstance) Fatal(m string, kv ...any) { r.add("fatal", m, kv) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recordingInstance{}, &recordingInstance{}
	Init(a, b)
	defer Init()

	Info("hello", "k", 1)
	Log("plain", "x", "y")

	for _, inst := range []*recordingInstance{a, b} {
		if len(inst.calls) != 2 {
			t.Fatalf("expected 2 calls, got %d", len(inst.calls))
		}
		if inst.calls[0].level != "info" || inst.calls[0].message != "hello" {
			t.Fatalf("unexpected first call: %+v", inst.calls[0])
		}
		if !reflect.DeepEqual(inst.calls[1].keyvals, []any{"x", "y"}) {
			t.Fatalf("Log dropped keyvals: %+v", inst.calls[1])
		}
	}
}

func TestScopedPrependsKeyvals(t *testing.T) {
	rec := &recordingInstance{}
	Init(rec)
	defer Init()

	With("graph_tag", "outline").Warn("skipped edge", "subject", "a")

	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(rec.calls))
	}
	want := []any{"graph_tag", "outline", "subject", "a"}
	if !reflect.DeepEqual(rec.calls[0].keyvals, want) {
		t.Fatalf("expected %v, got %v", want, rec.calls[0].keyvals)
	}
}

func TestNoopBeforeInit(t *testing.T) {
	singleton = nil
	Info("dropped")
	Error("dropped")
}
