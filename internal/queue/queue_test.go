package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/store/memory"
	"github.com/OFFIS-RIT/lexgraph/pkg/task"

	"github.com/rabbitmq/amqp091-go"
)

type taskMap map[string]*task.Task

func (m taskMap) Get(name string) (*task.Task, error) {
	t, ok := m[name]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

type objectLoader map[string]string

func (o objectLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	s, ok := o[file.FilePath]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return []byte(s), nil
}

type folderRecorder struct{ prefixes []string }

func (f *folderRecorder) DeleteFolder(ctx context.Context, prefix string) error {
	f.prefixes = append(f.prefixes, prefix)
	return nil
}

func personEngine(ctx context.Context, req extract.Request) (*extract.Document, error) {
	doc := &extract.Document{}
	if req.ResultFormat == extract.NodeFormat {
		for _, name := range []string{"张三", "李四"} {
			if strings.Contains(req.Text, name) {
				doc.Extractions = append(doc.Extractions, &extract.Extraction{ExtractionClass: "人员", ExtractionText: name})
			}
		}
	}
	return doc, nil
}

func newTestHandler(t *testing.T) (*Handler, *memory.Store, *folderRecorder) {
	t.Helper()
	s := memory.New()
	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Engine: extract.EngineFunc(personEngine),
		Model:  merge.New(s),
	})
	if err != nil {
		t.Fatalf("NewGraphClient returned error: %v", err)
	}
	uploads := &folderRecorder{}
	h := &Handler{
		Graph: client,
		Tasks: taskMap{"case": {
			Name:   "case",
			Prompt: "提取人员",
			Schema: extract.Schema{
				Nodes: []extract.NodeType{{Entity: "人员"}},
				Edges: []extract.EdgeType{{Relation: "认识", Subject: "人员", Predicate: "认识", Object: "人员"}},
			},
		}},
		Files:   objectLoader{"graphs/case1/x1/起诉书.txt": "张三起诉李四。"},
		Uploads: uploads,
	}
	return h, s, uploads
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleExtract(t *testing.T) {
	h, s, _ := newTestHandler(t)
	body := mustJSON(t, ExtractJobMsg{
		CorrelationID: "c1",
		GraphTag:      "case1",
		Task:          "case",
		Files:         []JobFile{{ID: "1", Key: "graphs/case1/x1/起诉书.txt"}},
	})

	if err := h.Handle(context.Background(), ExtractQueue, body); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	node, err := s.GetNode(context.Background(), "case1", "张三")
	if err != nil {
		t.Fatalf("GetNode returned error: %v", err)
	}
	if len(node.Filename) != 1 || node.Filename[0] != "起诉书.txt" {
		t.Fatalf("expected upload name as provenance, got %v", node.Filename)
	}
}

func TestHandleExtractErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      []byte
		permanent bool
	}{
		{name: "malformed", body: []byte("{"), permanent: true},
		{name: "missing files", body: []byte(`{"graph_tag":"case1","task":"case"}`), permanent: true},
		{name: "unknown task", body: []byte(`{"graph_tag":"case1","task":"nope","files":[{"key":"a.txt"}]}`), permanent: true},
		{name: "bad tag", body: []byte(`{"graph_tag":"case 1","task":"case","files":[{"key":"a.txt"}]}`), permanent: true},
		{name: "missing object", body: []byte(`{"graph_tag":"case1","task":"case","files":[{"key":"gone.txt"}]}`), permanent: false},
		{name: "pdf only", body: []byte(`{"graph_tag":"case1","task":"case","files":[{"key":"scan.pdf"}]}`), permanent: true},
		{name: "pdf and missing object", body: []byte(`{"graph_tag":"case1","task":"case","files":[{"key":"scan.pdf"},{"key":"gone.txt"}]}`), permanent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t)
			err := h.Handle(context.Background(), ExtractQueue, tt.body)
			if err == nil {
				t.Fatal("expected error")
			}
			if Permanent(err) != tt.permanent {
				t.Fatalf("Permanent(%v) = %v, want %v", err, Permanent(err), tt.permanent)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	h, s, uploads := newTestHandler(t)
	ctx := context.Background()
	extractBody := mustJSON(t, ExtractJobMsg{GraphTag: "case1", Task: "case", Files: []JobFile{{Key: "graphs/case1/x1/起诉书.txt"}}})
	if err := h.Handle(ctx, ExtractQueue, extractBody); err != nil {
		t.Fatalf("extract returned error: %v", err)
	}

	deleteBody := mustJSON(t, DeleteJobMsg{GraphTag: "case1", Prefix: "graphs/case1/"})
	if err := h.Handle(ctx, DeleteQueue, deleteBody); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if nodes, _ := s.Counts("case1"); nodes != 0 {
		t.Fatalf("expected graph to be deleted, %d nodes left", nodes)
	}
	if len(uploads.prefixes) != 1 || uploads.prefixes[0] != "graphs/case1/" {
		t.Fatalf("unexpected upload cleanup %v", uploads.prefixes)
	}
}

func TestHandleUnknownQueue(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if err := h.Handle(context.Background(), "other", nil); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

type publishRecorder struct {
	queues []string
	msgs   []amqp091.Publishing
	err    error
}

func (p *publishRecorder) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.queues = append(p.queues, key)
	p.msgs = append(p.msgs, msg)
	return nil
}

type ackRecorder struct {
	acked, nacked, requeued bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}
func (a *ackRecorder) Reject(tag uint64, requeue bool) error { return nil }

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name        string
		headers     amqp091.Table
		maxRetries  int
		wantQueue   string
		wantRetries int
	}{
		{name: "first failure", headers: nil, maxRetries: 3, wantQueue: "extract_queue_retry", wantRetries: 1},
		{name: "retry again", headers: amqp091.Table{"x-retries": int32(2)}, maxRetries: 3, wantQueue: "extract_queue_retry", wantRetries: 3},
		{name: "exhausted", headers: amqp091.Table{"x-retries": int32(3)}, maxRetries: 3, wantQueue: "extract_queue_dlq", wantRetries: 3},
		{name: "permanent", headers: nil, maxRetries: 0, wantQueue: "extract_queue_dlq", wantRetries: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &publishRecorder{}
			ack := &ackRecorder{}
			msg := amqp091.Delivery{Acknowledger: ack, Headers: tt.headers, Body: []byte("job")}

			HandleProcessingError(context.Background(), pub, msg, ExtractQueue, tt.maxRetries)

			if len(pub.queues) != 1 || pub.queues[0] != tt.wantQueue {
				t.Fatalf("published to %v, want %s", pub.queues, tt.wantQueue)
			}
			if got := Retries(pub.msgs[0].Headers); got != tt.wantRetries {
				t.Fatalf("retries header = %d, want %d", got, tt.wantRetries)
			}
			if string(pub.msgs[0].Body) != "job" || !ack.acked {
				t.Fatalf("expected body to be forwarded and original acked")
			}
		})
	}
}

func TestHandleProcessingErrorRequeuesOnPublishFailure(t *testing.T) {
	pub := &publishRecorder{err: errors.New("channel closed")}
	ack := &ackRecorder{}

	HandleProcessingError(context.Background(), pub, amqp091.Delivery{Acknowledger: ack}, DeleteQueue, 3)

	if ack.acked || !ack.nacked || !ack.requeued {
		t.Fatalf("expected requeue, got %+v", ack)
	}
}
