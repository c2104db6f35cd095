package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docbridge/pkg/logging"

	"gopkg.in/yaml.v3"
)

// FileStore is a file-backed StateStore. Each workspace gets one yaml file
// of key/value pairs under <configPath>/state/.
type FileStore struct {
	mu         sync.RWMutex
	configPath string
}

// NewFileStore creates a store rooted at the given config directory.
func NewFileStore(configPath string) *FileStore {
	return &FileStore{configPath: configPath}
}

// Get implements StateStore.
func (fs *FileStore) Get(workspace, key string) (string, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	values, err := fs.read(workspace)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements StateStore.
func (fs *FileStore) Set(workspace, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.read(workspace)
	if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	path := fs.workspaceFile(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", path, err)
	}
	logging.Debug("FileStore", "Persisted %s for workspace %s", key, workspace)
	return nil
}

func (fs *FileStore) read(workspace string) (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(fs.workspaceFile(workspace))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("corrupt state file for workspace %s: %w", workspace, err)
	}
	return values, nil
}

func (fs *FileStore) workspaceFile(workspace string) string {
	return filepath.Join(fs.configPath, "state", sanitizeFilename(workspace)+".yaml")
}

// sanitizeFilename makes a workspace identifier safe to use as a file name.
func sanitizeFilename(name string) string {
	if name == "" {
		return "default"
	}
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return r.Replace(strings.Trim(name, "/\\"))
}
