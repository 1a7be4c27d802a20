// Package task loads extraction task definitions from YAML files.
//
// A task bundles the raw extraction instruction, the ontology the model is
// constrained to, few-shot examples and engine options:
//
//	name: 案件要素
//	prompt: 请从以下案件文本中提取实体和关系。
//	schema:
//	  nodes:
//	    - entity: 人员
//	      attributes: [角色]
//	  edges:
//	    - relation: 起诉
//	      subject: 人员
//	      predicate: 起诉
//	      object: 人员
//	examples:
//	  - text: 张三起诉李四。
//	    nodes:
//	      - extraction_class: 人员
//	        extraction_text: 张三
//	        attributes: {角色: 原告}
//	config:
//	  model_id: gpt-4.1-mini
//	  api_key: ${OPENAI_API_KEY}
package task

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/extract"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTask = errors.New("invalid task")

// Task is one extraction task. Config starts from extract.GraphConfig and
// only the keys present in the file override it.
type Task struct {
	Name     string                 `yaml:"name"`
	Prompt   string                 `yaml:"prompt"`
	Schema   extract.Schema         `yaml:"schema"`
	Examples []extract.GraphExample `yaml:"examples"`
	Config   extract.Config         `yaml:"config"`
}

// Parse decodes a task from YAML and validates it. Environment references in
// config.api_key and config.api_url are expanded.
func Parse(data []byte) (*Task, error) {
	t := &Task{Config: extract.GraphConfig()}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}

	t.Config.APIKey = os.ExpandEnv(t.Config.APIKey)
	t.Config.APIURL = os.ExpandEnv(t.Config.APIURL)

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads and parses the task file at path.
func Load(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate checks that the task can drive an extraction.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", ErrInvalidTask)
	}
	if len(t.Schema.Nodes) == 0 {
		return fmt.Errorf("%w: schema declares no node types", ErrInvalidTask)
	}
	for i, n := range t.Schema.Nodes {
		if strings.TrimSpace(n.Entity) == "" {
			return fmt.Errorf("%w: node type %d has no entity", ErrInvalidTask, i)
		}
	}
	for i, e := range t.Schema.Edges {
		if e.Subject == "" || e.Predicate == "" || e.Object == "" {
			return fmt.Errorf("%w: edge type %d needs subject, predicate and object", ErrInvalidTask, i)
		}
	}
	return nil
}
