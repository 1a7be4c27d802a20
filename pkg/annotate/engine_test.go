package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/ai"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
)

type fakeClient struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeClient) record(prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return f.record(prompt)
}

func (f *fakeClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	raw, err := f.record(prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error { return nil }
func (f *fakeClient) ResetMetrics()                                                 {}
func (f *fakeClient) GetMetrics() ai.ModelMetrics                                   { return ai.ModelMetrics{} }

func TestChunkText(t *testing.T) {
	text := "张三是原告。李四是被告。\n法院受理了案件。"

	chunks := chunkText(text, 7)
	var joined strings.Builder
	for i, c := range chunks {
		if c.index != i {
			t.Fatalf("chunk %d has index %d", i, c.index)
		}
		if n := len([]rune(c.text)); n > 7 {
			t.Fatalf("chunk %d has %d runes, want <= 7", i, n)
		}
		if got := string([]rune(text)[c.start : c.start+len([]rune(c.text))]); got != c.text {
			t.Fatalf("chunk %d offset mismatch: %q vs %q", i, got, c.text)
		}
		joined.WriteString(c.text)
	}
	if joined.String() != text {
		t.Fatalf("chunks do not cover text: %q", joined.String())
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[1].text != "李四是被告。\n" || chunks[1].start != 6 {
		t.Fatalf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestChunkTextHardSplit(t *testing.T) {
	chunks := chunkText("一二三四五六七八九十", 4)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[2].text != "九十" || chunks[2].start != 8 {
		t.Fatalf("unexpected last chunk: %+v", chunks[2])
	}
}

func TestChunkTextSkipsBlank(t *testing.T) {
	if chunks := chunkText("  \n\n ", 100); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
}

func TestResolveDynamic(t *testing.T) {
	raw := "```json\n" + `{"extractions": [
		{"人物": "张三", "人物_attributes": {"角色": "原告"}},
		{"extraction_class": "机构", "extraction_text": "法院", "attributes": {}}
	]}` + "\n```"

	got, err := resolveDynamic(raw, defaultAttributeSuffix)
	if err != nil {
		t.Fatalf("resolveDynamic returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 extractions, got %d", len(got))
	}
	if got[0].ExtractionClass != "人物" || got[0].ExtractionText != "张三" {
		t.Fatalf("unexpected first extraction: %+v", got[0])
	}
	attrs, ok := got[0].Attributes.(map[string]any)
	if !ok || attrs["角色"] != "原告" {
		t.Fatalf("unexpected attributes: %#v", got[0].Attributes)
	}
	if got[1].ExtractionClass != "机构" || got[1].ExtractionText != "法院" {
		t.Fatalf("unexpected second extraction: %+v", got[1])
	}
}

func TestResolveDynamicBareArray(t *testing.T) {
	got, err := resolveDynamic(`[{"地点": "北京"}]`, defaultAttributeSuffix)
	if err != nil {
		t.Fatalf("resolveDynamic returned error: %v", err)
	}
	if len(got) != 1 || got[0].ExtractionText != "北京" || got[0].Attributes != nil {
		t.Fatalf("unexpected extractions: %+v", got)
	}
}

func TestEngineSchemaConstrained(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		return `{"extractions":[{"extraction_class":"人物","extraction_text":"李四","attributes":[{"name":"角色","value":"被告"}]}]}`, nil
	}}
	engine := New(EngineParams{Client: client})

	cfg := extract.DefaultConfig()
	doc, err := engine.Extract(context.Background(), extract.Request{
		Prompt: "提取人物",
		Text:   "张三起诉李四。",
		Config: cfg,
		Examples: []extract.Example{{
			Text: "王五是证人。",
			Extractions: []extract.ExampleExtraction{{
				ExtractionClass: "人物", ExtractionText: "王五", Attributes: map[string]any{"角色": "证人"},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(doc.Extractions) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(doc.Extractions))
	}

	x := doc.Extractions[0]
	if x.CharInterval == nil || *x.CharInterval.StartPos != 4 || *x.CharInterval.EndPos != 6 {
		t.Fatalf("unexpected char interval: %+v", x.CharInterval)
	}
	if x.AlignmentStatus == nil || *x.AlignmentStatus != extract.MatchExact {
		t.Fatalf("expected exact alignment, got %v", x.AlignmentStatus)
	}
	if *x.GroupIndex != 0 || *x.ExtractionIndex != 1 {
		t.Fatalf("unexpected indices: group=%d index=%d", *x.GroupIndex, *x.ExtractionIndex)
	}
	attrs := x.Attributes.(map[string]any)
	if attrs["角色"] != "被告" {
		t.Fatalf("unexpected attributes: %#v", attrs)
	}

	prompt := client.prompts[0]
	for _, want := range []string{"提取人物", "Q: 王五是证人。", `"extraction_class": "人物"`, "Q: 张三起诉李四。"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestEngineDynamicFormatAcrossChunks(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		switch {
		case strings.HasSuffix(prompt, "Q: 张三是原告。\nA: "):
			return `{"extractions":[{"人物":"张三"}]}`, nil
		case strings.HasSuffix(prompt, "Q: 李四是被告。\nA: "):
			return `{"extractions":[{"人物":"李四"},{"人物":"王五"}]}`, nil
		}
		return "", errors.New("unexpected prompt")
	}}
	engine := New(EngineParams{Client: client})

	cfg := extract.DefaultConfig()
	cfg.UseSchemaConstraints = false
	cfg.MaxCharBuffer = 6
	cfg.MaxWorkers = 2

	doc, err := engine.Extract(context.Background(), extract.Request{Prompt: "p", Text: "张三是原告。李四是被告。", Config: cfg})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(doc.Extractions) != 3 {
		t.Fatalf("expected 3 extractions, got %d", len(doc.Extractions))
	}

	li := doc.Extractions[1]
	if li.ExtractionText != "李四" || *li.GroupIndex != 1 || *li.ExtractionIndex != 1 {
		t.Fatalf("unexpected second extraction: %+v", li)
	}
	if *li.CharInterval.StartPos != 6 {
		t.Fatalf("expected document offset 6, got %d", *li.CharInterval.StartPos)
	}
	if ww := doc.Extractions[2]; ww.CharInterval != nil || ww.AlignmentStatus != nil {
		t.Fatalf("unaligned extraction should have no interval: %+v", ww)
	}
}

func TestEngineLaterPassesSkipOverlaps(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	client := &fakeClient{respond: func(prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return `{"extractions":[{"人物":"张三"}]}`, nil
		}
		return `{"extractions":[{"人物":"张三"},{"人物":"李四"}]}`, nil
	}}
	engine := New(EngineParams{Client: client})

	cfg := extract.DefaultConfig()
	cfg.UseSchemaConstraints = false
	cfg.ExtractionPasses = 2

	doc, err := engine.Extract(context.Background(), extract.Request{Prompt: "p", Text: "张三起诉李四。", Config: cfg})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(doc.Extractions) != 2 {
		t.Fatalf("expected 2 extractions, got %d", len(doc.Extractions))
	}
	if doc.Extractions[1].ExtractionText != "李四" {
		t.Fatalf("unexpected second extraction: %+v", doc.Extractions[1])
	}
}

func TestEnginePropagatesErrors(t *testing.T) {
	boom := errors.New("429 too many requests")
	client := &fakeClient{respond: func(string) (string, error) { return "", boom }}
	engine := New(EngineParams{Client: client})

	_, err := engine.Extract(context.Background(), extract.Request{Prompt: "p", Text: "张三。", Config: extract.DefaultConfig()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if !extract.IsRateLimited(err) {
		t.Fatalf("expected rate limit classification for %v", err)
	}
}

func TestRenderPromptFencedDynamic(t *testing.T) {
	cfg := extract.DefaultConfig()
	cfg.UseSchemaConstraints = false
	cfg.FenceOutput = true
	cfg.AdditionalContext = "案件背景"

	prompt, err := renderPrompt(extract.Request{
		Prompt: "提取",
		Config: cfg,
		Examples: []extract.Example{{
			Text:        "张三",
			Extractions: []extract.ExampleExtraction{{ExtractionClass: "人物", ExtractionText: "张三"}},
		}},
	}, "李四")
	if err != nil {
		t.Fatalf("renderPrompt returned error: %v", err)
	}
	for _, want := range []string{"```json", `"人物": "张三"`, `"人物_attributes": {}`, "案件背景", "Q: 李四\nA: "} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestEngineClientPerEndpoint(t *testing.T) {
	reply := func(string) (string, error) { return `{"extractions":[]}`, nil }
	base := &fakeClient{respond: reply}
	created := map[string]*fakeClient{}
	engine := New(EngineParams{
		Client: base,
		NewClient: func(apiURL, apiKey string) (ai.GraphAIClient, error) {
			c := &fakeClient{respond: reply}
			created[apiURL+"|"+apiKey] = c
			return c, nil
		},
	})

	cfg := extract.DefaultConfig()
	req := extract.Request{Prompt: "p", Text: "张三。", Config: cfg}
	if _, err := engine.Extract(context.Background(), req); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	req.Config.APIURL = "http://llm.local/v1"
	req.Config.APIKey = "k"
	for range 2 {
		if _, err := engine.Extract(context.Background(), req); err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
	}

	if len(base.prompts) != 1 {
		t.Fatalf("expected 1 request on the default client, got %d", len(base.prompts))
	}
	c, ok := created["http://llm.local/v1|k"]
	if len(created) != 1 || !ok || len(c.prompts) != 2 {
		t.Fatalf("expected one reused endpoint client, got %v", created)
	}
}
