package quiz

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Export is the YAML document written by WriteYAML.
type Export struct {
	GeneratedAt time.Time  `yaml:"generated_at"`
	Source      string     `yaml:"source,omitempty"`
	Difficulty  Difficulty `yaml:"difficulty,omitempty"`
	Questions   []Question `yaml:"questions"`
}

// WriteYAML encodes doc with two-space indentation.
func WriteYAML(w io.Writer, doc Export) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	return enc.Close()
}

// ExportFile writes doc to path, creating parent directories.
func ExportFile(path string, doc Export) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteYAML(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadYAML decodes a document written by WriteYAML.
func ReadYAML(r io.Reader) (Export, error) {
	var doc Export
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Export{}, fmt.Errorf("decode quiz: %w", err)
	}
	return doc, nil
}
