package lua

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const scriptExt = ".lua"

// ErrInvalidName is returned for script names that are not plain file names.
var ErrInvalidName = errors.New("invalid script name")

// sanitizeFilename checks for directory traversal and ensures a valid .lua extension.
func sanitizeFilename(name string) (string, error) {
	if !strings.HasSuffix(name, scriptExt) {
		name += scriptExt
	}
	cleanName := filepath.Base(name)
	if cleanName != name || cleanName == scriptExt || strings.Contains(cleanName, "..") {
		return "", fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	return cleanName, nil
}

// Library manages the effect scripts stored in one directory.
type Library struct {
	dir string
}

// NewLibrary creates a Library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the scripts directory.
func (l *Library) Dir() string {
	return l.dir
}

// Path returns the safe path of a script within the library.
func (l *Library) Path(name string) (string, error) {
	cleanName, err := sanitizeFilename(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, cleanName), nil
}

// List returns the effect names (file names without extension) in the library.
func (l *Library) List() ([]string, error) {
	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == scriptExt {
			names = append(names, strings.TrimSuffix(file.Name(), scriptExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Code reads the source of a script.
func (l *Library) Code(name string) (string, error) {
	path, err := l.Path(name)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Save writes the source of a script, creating the directory if needed.
func (l *Library) Save(name, code string) error {
	path, err := l.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}
	return os.WriteFile(path, []byte(code), 0644)
}

// Delete removes a script.
func (l *Library) Delete(name string) error {
	path, err := l.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
