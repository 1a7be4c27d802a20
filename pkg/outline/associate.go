package outline

import (
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// AssociationPrompt asks the model to relate every file name to one of the
// outline's leaf business nodes as "file -相关业务-> leaf".
const AssociationPrompt = `
# 角色
您是一个案件监督管理业务专家，能够通过案件监督管理类业务大纲对相关文件进行分类和业务关联，用于构建案件监督管理业务分类知识图谱。

# 任务说明
输入的内容包括三个部分：业务大纲、叶子结点业务列表、文件名列表
请根据大纲内的业务节点，为材料文件进行业务关联和分类，包括如下任务：
1. 加载业务大纲节点层级关系，理解对文件分类的业务大纲结构和含义，为叶子结点业务的理解做铺垫
2. 结合业务大纲，遍历叶子结点业务列表中的每个节点业务，理解其含义和分类范围
3. 遍历文件名列表中的每个文件名，对每个文件都进行如下操作：分析其业务领域，根据文件名，猜测该文件可归类到哪一业务节点，将其与叶子结点业务列表中的业务节点进行关联、分类，构建出"文件名 - 相关业务 - 业务节点"关系

# **重要要求**
1. 请尽最大可能得将每个文件名都与叶子结点业务列表中的业务节点关联
2. 文件名关联的业务节点必须是是叶子结点业务列表中的业务节点,即"文件名 - 相关业务 - 业务节点"中的"业务节点"必须是"叶子结点业务列表"中的"业务节点"！！！

本体任务提取的关系schema如下：
# 关系schema
[
    {
        "关系": "相关业务",
        "主体": "文件名",
        "谓词": "相关文件",
        "客体": "业务节点"
    },
]
# 输出要求：
1. 严格按以下JSON格式输出，不要添加任何额外文本或解释
2. 确保JSON语法正确，可以被直接解析
3. 所有字符串使用双引号(")而非单引号(')
4. 不要包含任何Markdown格式或代码块标记
`

// AssociationExampleText is the few-shot input paired with
// AssociationExampleLinks.
const AssociationExampleText = "# 案件监督管理类业务\n1. 线索管理\n（1） 本机关收到的问题线索\n2. 组织协调\n（1） 内部查办案件流程协调\na. 反腐败协调小组会议组织筹办\n" +
	"# 叶子结点业务列表\n['本机关收到的问题线索','反腐败协调小组会议组织筹办']\n" +
	"# 文件名列表\n['获取问题线索后流程指导.txt','反腐败协调小组会议筹办事项.docx']"

// AssociationExampleLinks are the expected file to business relations for
// AssociationExampleText.
var AssociationExampleLinks = []common.Relation{
	{Subject: "获取问题线索后流程指导.txt", Predicate: common.PredicateRelatedBusiness, Object: "本机关收到的问题线索"},
	{Subject: "反腐败协调小组会议筹办事项.docx", Predicate: common.PredicateRelatedBusiness, Object: "反腐败协调小组会议组织筹办"},
}

// AssociationInput assembles the text sent with AssociationPrompt.
func AssociationInput(outlineText string, leaves, files []string) string {
	var b strings.Builder
	b.WriteString("\n# 业务大纲\n")
	b.WriteString(outlineText)
	b.WriteString("\n# 叶子结点业务列表\n")
	b.WriteString(common.FormatNameList(leaves))
	b.WriteString("\n# 文件名列表\n")
	b.WriteString(common.FormatNameList(files))
	return b.String()
}

// LinkFiles combines an outline graph with file entities. Every extracted
// link "file -相关业务-> leaf" is stored reversed as "leaf -相关文件-> file".
func LinkFiles(outline, files common.Graph, links []common.Relation) common.Graph {
	out := common.Graph{
		Entities:  make([]common.Entity, 0, len(outline.Entities)+len(files.Entities)),
		Relations: make([]common.Relation, 0, len(outline.Relations)+len(links)),
	}
	out.Entities = append(out.Entities, outline.Entities...)
	out.Entities = append(out.Entities, files.Entities...)
	out.Relations = append(out.Relations, outline.Relations...)

	for _, l := range links {
		if l.Subject == "" || l.Object == "" {
			continue
		}
		out.Relations = append(out.Relations, common.Relation{
			Subject:   l.Object,
			Predicate: common.PredicateRelatedFile,
			Object:    l.Subject,
			Label:     common.PredicateRelatedFile,
		})
	}
	return out
}
