package task

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrTaskNotFound = errors.New("task not found")

// Dir resolves task names to <dir>/<name>.yaml.
type Dir string

// Get loads the task called name. Names must not contain path separators.
func (d Dir) Get(name string) (*Task, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid task name %q", ErrInvalidTask, name)
	}

	path := filepath.Join(string(d), name+".yaml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return Load(path)
}
