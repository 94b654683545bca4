package configuration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// UpdateConfig converts a JSON document into YAML and writes it to path.
// The document must carry a non-empty "monitor" list; other top level keys
// are kept as given.
func UpdateConfig(path string, jsonConfig []byte) error {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewBuffer(jsonConfig)); err != nil {
		return fmt.Errorf("error while reading JSON: %w", err)
	}

	monitors, ok := v.Get("monitor").([]any)
	if !ok || len(monitors) == 0 {
		return fmt.Errorf("'monitor' key not found in the input JSON")
	}

	for i, m := range monitors {
		entry, ok := m.(map[string]any)
		if !ok {
			return fmt.Errorf("monitor[%d] is not an object", i)
		}
		if u, _ := entry["url"].(string); strings.TrimSpace(u) == "" {
			return fmt.Errorf("monitor[%d] has no url", i)
		}
	}

	yamlData, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("error marshalling to YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing YAML file: %w", err)
	}

	return nil
}
