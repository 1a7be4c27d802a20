package extract

import (
	"encoding/json"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// NodeType declares an entity class and the attributes to extract for it.
type NodeType struct {
	Entity     string   `json:"实体" yaml:"entity"`
	Attributes []string `json:"属性" yaml:"attributes"`
}

// EdgeType declares a relation class with the expected subject and object
// classes and its predicate.
type EdgeType struct {
	Relation  string `json:"关系" yaml:"relation"`
	Subject   string `json:"主体" yaml:"subject"`
	Predicate string `json:"谓词" yaml:"predicate"`
	Object    string `json:"客体" yaml:"object"`
}

// Schema is the ontology an extraction is constrained to. The definitions
// explain the ontology terms to the model; empty definitions fall back to
// DefaultEntityDefinition and DefaultRelationDefinition.
type Schema struct {
	Nodes              []NodeType `json:"nodes" yaml:"nodes"`
	Edges              []EdgeType `json:"edges" yaml:"edges"`
	EntityDefinition   string     `json:"entity_definition,omitempty" yaml:"entity_definition"`
	RelationDefinition string     `json:"relation_definition,omitempty" yaml:"relation_definition"`
}

const DefaultEntityDefinition = `实体是文本中可以独立指称的对象，例如案件、人员、机构、文书、事项或业务环节。
实体由类别实体（实体类型）和提取的实体（原文中的实体名称）组成，属性为该实体在原文中明确给出的特征。`

const DefaultRelationDefinition = `关系是两个已提取实体之间的有向联系，由主体、谓词、客体三部分组成。
主体和客体必须是已提取的实体名称，谓词描述二者之间的联系。`

// NodeFormat is the result template of the node phase.
const NodeFormat = `
{
    "extractions": [
        {
            "类别实体": "提取的实体",
            "类别实体_attributes": {
                "属性名1": "属性值1",
                "属性名2": "属性值2",
                ...
            }
        }
    ]
}
`

// EdgeFormat is the result template of the edge phase.
const EdgeFormat = `
{
    "extractions": [
        {
            "关系": "关系文本",
            "关系_attributes": {
                "主体": "华为",
                "谓词": "研发",
                "客体": "麒麟芯片"
            }
        }
    ]
}
`

const outputRequirements = `# 输出要求：
1. 严格按以下JSON格式输出，不要添加任何额外文本或解释
2. 确保JSON语法正确，可以被直接解析
3. 所有字符串使用双引号(")而非单引号(')
4. 不要包含任何Markdown格式或代码块标记
`

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// NodePrompt extends the task prompt with the node phase instructions.
func NodePrompt(raw string, schema Schema) string {
	var b strings.Builder
	b.WriteString(raw)
	b.WriteString("\n**以下内容最重要**\n# 提取内容\n为了提高抽取效率，我们将抽取任务分为两部分\n本次对话仅提取实体和其内部的属性\n本体任务提取的实体schema如下：\n# 实体schema\n")
	b.WriteString(mustJSON(schema.Nodes))
	b.WriteString("\n# 定义\n实体的定义如下\n")
	b.WriteString(orDefault(schema.EntityDefinition, DefaultEntityDefinition))
	b.WriteString("\n# 注意事项\n1. 严格按照定义的实体类型进行提取\n2. 只提取文本中明确表达的信息，不要进行推断\n3. 保持文本原始表述，不要改写\n")
	b.WriteString(outputRequirements)
	return b.String()
}

// EdgePrompt extends the task prompt with the edge phase instructions. The
// node names are the closed list of allowed relation endpoints.
func EdgePrompt(raw string, nodeNames []string, schema Schema) string {
	var b strings.Builder
	b.WriteString(raw)
	b.WriteString("\n**以下内容最重要**\n# 提取内容\n为了提高抽取效率，我们将抽取任务分为两部分\n本次对话请根据实体提取关系\n本体任务已提取的实体如下：\n")
	b.WriteString(common.FormatNameList(nodeNames))
	b.WriteString("\n本体任务提取的关系schema如下：\n# 关系schema\n")
	b.WriteString(mustJSON(schema.Edges))
	b.WriteString("\n# 定义\n实体的定义如下\n")
	b.WriteString(orDefault(schema.RelationDefinition, DefaultRelationDefinition))
	b.WriteString("\n# 注意事项\n1. 严格按照定义的关系类型进行提取\n2. 只提取文本中明确表达的信息，或根据文本明确内容进行推断\n3. 保持文本原始表述，不要改写\n")
	b.WriteString(outputRequirements)
	return b.String()
}

// WithFormat appends the output format requirements to a prompt.
func WithFormat(prompt, format string) string {
	return prompt + "\n# 输出格式要求\n以JSON格式输出，但请不要以```json````方式输出\n请严格按照如下JSON字符串的格式回答：\n" + format
}
