// Package statefile loads and saves store state as YAML. The playground
// hydrates its store from a state file, re-hydrates when it changes on
// disk, and dumps the current state back out.
package statefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/strand/internal/log"
)

// Load reads a YAML state file into a plain string-keyed map. A missing
// file is not an error: it loads as an empty state.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug(log.CatWatcher, "State file missing, starting empty", "path", path)
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state map[string]any
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if state == nil {
		state = map[string]any{}
	}
	return normalize(state).(map[string]any), nil
}

// Save writes state to path as YAML, atomically via a temp file rename so
// a concurrent watcher never observes a half-written file.
func Save(path string, state map[string]any) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	_ = encoder.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".state.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	log.Debug(log.CatWatcher, "State saved", "path", path, "keys", len(state))
	return nil
}

// normalize rewrites YAML's map[any]any containers into map[string]any so
// loaded state matches the shape the store works with.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = normalize(elem)
		}
		return val
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, elem := range val {
			if key, ok := k.(string); ok {
				converted[key] = normalize(elem)
			}
		}
		return converted
	case []any:
		for i, elem := range val {
			val[i] = normalize(elem)
		}
		return val
	default:
		return v
	}
}
