// Package config carries the server settings that shape the compiler
// facility: the user classpath and the external dependency coordinates.
// Settings arrive two ways, later sources overriding earlier ones:
//
//  1. a jls.toml file at the workspace root
//  2. workspace/didChangeConfiguration notifications (the "java" section)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ProjectFileName is looked up at the workspace root.
const ProjectFileName = "jls.toml"

type Settings struct {
	// ExternalDependencies lists artifact coordinates ("group:artifact:version")
	// resolved outside the server.
	ExternalDependencies []string `toml:"external_dependencies"`
	// ClassPath lists absolute paths of jars and class directories.
	ClassPath []string `toml:"class_path"`
}

// Load reads the project file at root. A missing file yields zero settings.
func Load(root string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(filepath.Join(root, ProjectFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read %s: %w", ProjectFileName, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", ProjectFileName, err)
	}
	s.normalize()
	return s, nil
}

// ParseDidChangeConfiguration extracts the "java" section of a
// workspace/didChangeConfiguration payload.
func ParseDidChangeConfiguration(settings json.RawMessage) (Settings, error) {
	var wire struct {
		Java struct {
			ExternalDependencies []string `json:"externalDependencies"`
			ClassPath            []string `json:"classPath"`
		} `json:"java"`
	}
	if err := json.Unmarshal(settings, &wire); err != nil {
		return Settings{}, fmt.Errorf("parse configuration: %w", err)
	}
	s := Settings{
		ExternalDependencies: wire.Java.ExternalDependencies,
		ClassPath:            wire.Java.ClassPath,
	}
	s.normalize()
	return s, nil
}

func (s *Settings) normalize() {
	for i, p := range s.ClassPath {
		if abs, err := filepath.Abs(p); err == nil {
			s.ClassPath[i] = abs
		}
	}
}
