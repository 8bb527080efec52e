package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsZeroSettings(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, s.ClassPath)
	assert.Empty(t, s.ExternalDependencies)
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	content := `
external_dependencies = ["junit:junit:4.13"]
class_path = ["/opt/libs/guava.jar"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"junit:junit:4.13"}, s.ExternalDependencies)
	assert.Equal(t, []string{"/opt/libs/guava.jar"}, s.ClassPath)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("class_path = {"), 0644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestParseDidChangeConfiguration(t *testing.T) {
	payload := json.RawMessage(`{"java":{"externalDependencies":["g:a:1"],"classPath":["/abs/one.jar"]}}`)
	s, err := ParseDidChangeConfiguration(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"g:a:1"}, s.ExternalDependencies)
	assert.Equal(t, []string{"/abs/one.jar"}, s.ClassPath)
}

func TestParseDidChangeConfigurationWithoutJavaSection(t *testing.T) {
	s, err := ParseDidChangeConfiguration(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, s.ClassPath)
}
