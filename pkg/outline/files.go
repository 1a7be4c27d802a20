package outline

import (
	"fmt"
	"os"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// FileFormat returns the lower-cased extension of name, or "unknown".
func FileFormat(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "unknown"
	}
	return strings.ToLower(name[i+1:])
}

// ParseFilenames turns a filename list into file entities. Blank and '#'
// lines are ignored and a leading "- " list marker is removed.
func ParseFilenames(text string) common.Graph {
	g := common.Graph{Entities: []common.Entity{}}
	for raw := range strings.Lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if name == "" {
			continue
		}
		g.Entities = append(g.Entities, common.Entity{
			ID:    name,
			Name:  name,
			Label: common.LabelFile,
			Properties: map[string]any{
				common.PropertyFileFormat: FileFormat(name),
			},
		})
	}
	return g
}

func ParseFilenamesFile(path string) (common.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.Graph{}, fmt.Errorf("failed to read filename list: %w", err)
	}
	return ParseFilenames(string(data)), nil
}
