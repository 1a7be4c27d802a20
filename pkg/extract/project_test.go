package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

func TestEdgesAcceptBothKeyConventions(t *testing.T) {
	records := []Record{
		{ExtractionClass: RelationClass, Attributes: map[string]any{"主体": "某案", "谓词": "涉及", "客体": "张三"}},
		{ExtractionClass: RelationClass, Attributes: map[string]any{"主语": "某案", "谓语": "涉及", "宾语": "张三"}},
		{ExtractionClass: "起诉", Attributes: map[string]any{"主体": "张三", "谓词": "起诉", "客体": "李四"}},
		{ExtractionClass: "起诉", Attributes: map[string]any{"主语": "张三", "谓语": "起诉", "宾语": "李四"}},
	}
	edges := Edges(records)
	if len(edges) != 4 {
		t.Fatalf("expected 4 edges, got %d", len(edges))
	}
	if edges[0] != edges[1] {
		t.Fatalf("conventions should yield equal relations: %+v vs %+v", edges[0], edges[1])
	}
	if edges[2] != edges[3] {
		t.Fatalf("conventions should yield equal relations for other classes: %+v vs %+v", edges[2], edges[3])
	}
	if edges[3].Label != "起诉" {
		t.Fatalf("expected class as label, got %+v", edges[3])
	}
}

func TestEdges(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   []common.Relation
	}{
		{
			name:   "primary key wins over alias",
			record: Record{ExtractionClass: RelationClass, Attributes: map[string]any{"主体": "A", "主语": "B", "谓词": "p", "客体": "C"}},
			want:   []common.Relation{{Subject: "A", Predicate: "p", Object: "C", Label: RelationClass}},
		},
		{
			name:   "mixed conventions",
			record: Record{ExtractionClass: RelationClass, Attributes: map[string]any{"主语": "A", "谓词": "p", "宾语": "C"}},
			want:   []common.Relation{{Subject: "A", Predicate: "p", Object: "C", Label: RelationClass}},
		},
		{
			name:   "other class with complete triple",
			record: Record{ExtractionClass: "涉及", Attributes: map[string]any{"主体": "A", "谓词": "p", "客体": "C"}},
			want:   []common.Relation{{Subject: "A", Predicate: "p", Object: "C", Label: "涉及"}},
		},
		{
			name:   "other class with alias triple",
			record: Record{ExtractionClass: "涉及", Attributes: map[string]any{"主语": "A", "谓语": "p", "宾语": "C"}},
			want:   []common.Relation{{Subject: "A", Predicate: "p", Object: "C", Label: "涉及"}},
		},
		{
			name:   "other class with partial triple",
			record: Record{ExtractionClass: "涉及", Attributes: map[string]any{"主语": "A", "谓词": "p"}},
			want:   []common.Relation{},
		},
		{
			name:   "missing object",
			record: Record{ExtractionClass: RelationClass, Attributes: map[string]any{"主体": "A", "谓词": "p"}},
			want:   []common.Relation{},
		},
		{
			name:   "blank role",
			record: Record{ExtractionClass: RelationClass, Attributes: map[string]any{"主体": "  ", "谓词": "p", "客体": "C"}},
			want:   []common.Relation{},
		},
		{
			name:   "no class",
			record: Record{Attributes: map[string]any{"主体": "A", "谓词": "p", "客体": "C"}},
			want:   []common.Relation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Edges([]Record{tt.record})
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNodes(t *testing.T) {
	records := []Record{
		{ExtractionClass: "人员", ExtractionText: "张三", Attributes: map[string]any{"职务": "科长"}},
		{ExtractionClass: RelationClass, ExtractionText: "涉及"},
		{ExtractionClass: "", ExtractionText: "无类别"},
		{ExtractionClass: "案件", ExtractionText: ""},
		{ExtractionClass: "证人", ExtractionText: "张三"},
		{ExtractionClass: "案件", ExtractionText: "某案"},
	}
	got := Nodes(records)
	want := []common.Entity{
		{ID: "张三", Name: "张三", Label: "人员", Properties: map[string]any{"职务": "科长"}},
		{ID: "某案", Name: "某案", Label: "案件", Properties: map[string]any{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPrompts(t *testing.T) {
	schema := Schema{
		Nodes: []NodeType{{Entity: "人员", Attributes: []string{"职务"}}},
		Edges: []EdgeType{{Relation: "涉及", Subject: "案件", Predicate: "涉及", Object: "人员"}},
	}

	node := NodePrompt("任务", schema)
	for _, part := range []string{"任务\n**以下内容最重要**", `[{"实体":"人员","属性":["职务"]}]`, DefaultEntityDefinition, "本次对话仅提取实体和其内部的属性"} {
		if !strings.Contains(node, part) {
			t.Fatalf("node prompt lacks %q", part)
		}
	}

	schema.RelationDefinition = "自定义关系定义"
	edge := EdgePrompt("任务", []string{"张三", "某案"}, schema)
	for _, part := range []string{"['张三', '某案']", `"关系":"涉及"`, "自定义关系定义", "本次对话请根据实体提取关系"} {
		if !strings.Contains(edge, part) {
			t.Fatalf("edge prompt lacks %q", part)
		}
	}
	if strings.Contains(edge, DefaultRelationDefinition) {
		t.Fatal("custom definition should replace the default")
	}
}
