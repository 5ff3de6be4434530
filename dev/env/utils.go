package devenv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pandassist/pkg/configutil"
)

const moduleName = "pandassist"

var modName = regexp.MustCompile(`(?m)^module +([\w\-_./]+)\s*$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == moduleName
}

func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}

	for {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		parent := filepath.Dir(currentdir)
		if parent == currentdir {
			return "", os.ErrNotExist
		}
		currentdir = parent
	}
}

func GetStateFilePath(path string) (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state", path), nil
}

func GetStateConfig[T any](path string) (T, error) {
	configPath, err := GetStateFilePath(path)
	if err != nil {
		var out T
		return out, err
	}
	out, err := configutil.ReadValidated[T](configPath)
	if err != nil {
		return out, fmt.Errorf("read state config: %w", err)
	}
	return out, nil
}

// ResolvePath expands a leading `<dev_state>` segment into the dev/.state
// directory of the workspace, other paths are returned as is.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "<dev_state>") {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}

	stateDir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(stateDir, 0700)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimPrefix(path, "<dev_state>")
	return filepath.Join(stateDir, subpath), nil
}
