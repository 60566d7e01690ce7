package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noneChanged(string) bool { return false }

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(Flags{RepoPath: "/repo"}, noneChanged)
	require.NoError(t, err)

	assert.Equal(t, "/repo", cfg.RepoPath)
	assert.Equal(t, DefaultADLFile, cfg.ADLFile)
	assert.Equal(t, DefaultCodeExtensions, cfg.CodeExtensions)
	assert.Equal(t, DefaultContextDays, cfg.ContextDays)
	assert.False(t, cfg.ValidateSchema)
}

func TestLoadExplicitFlagsOverrideDefaults(t *testing.T) {
	flags := Flags{
		RepoPath:       "/repo",
		ADLFile:        "design/adl.yaml",
		CodeExtensions: []string{".go", ".PY"},
		ContextDays:    30,
		ValidateSchema: true,
	}

	changed := func(name string) bool {
		switch name {
		case "adl-file", "code-exts", "context-days", "validate-schema":
			return true
		default:
			return false
		}
	}

	cfg, err := Load(flags, changed)
	require.NoError(t, err)

	assert.Equal(t, "design/adl.yaml", cfg.ADLFile)
	assert.Equal(t, []string{".go", ".py"}, cfg.CodeExtensions)
	assert.Equal(t, 30, cfg.ContextDays)
	assert.True(t, cfg.ValidateSchema)
}

func TestLoadReadsEnvFallbacks(t *testing.T) {
	t.Setenv("REPO_PATH", "/env/repo")
	t.Setenv("ADL_FILE_PATH", "env-adl.yaml")
	t.Setenv("TRAINING_DATASET_PATH", "/env/out.ndjson")

	cfg, err := Load(Flags{}, noneChanged)
	require.NoError(t, err)

	assert.Equal(t, "/env/repo", cfg.RepoPath)
	assert.Equal(t, "env-adl.yaml", cfg.ADLFile)
	assert.Equal(t, "/env/out.ndjson", cfg.Output)
}

func TestLoadExplicitFlagWinsOverEnv(t *testing.T) {
	t.Setenv("ADL_FILE_PATH", "env-adl.yaml")

	flags := Flags{RepoPath: "/repo", ADLFile: "flag-adl.yaml"}
	changed := func(name string) bool { return name == "adl-file" }

	cfg, err := Load(flags, changed)
	require.NoError(t, err)

	assert.Equal(t, "flag-adl.yaml", cfg.ADLFile)
}

func TestLoadReadsYAMLConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adlminer.yaml")

	contents := "adl-file: from-file.yaml\ncontext-days: 45\ncode-exts:\n  - .go\n  - .rs\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(Flags{RepoPath: "/repo", ConfigFile: path}, noneChanged)
	require.NoError(t, err)

	assert.Equal(t, "from-file.yaml", cfg.ADLFile)
	assert.Equal(t, 45, cfg.ContextDays)
	assert.Equal(t, []string{".go", ".rs"}, cfg.CodeExtensions)
}

func TestLoadRejectsInvalidContextDays(t *testing.T) {
	flags := Flags{RepoPath: "/repo", ContextDays: 0}
	changed := func(name string) bool { return name == "context-days" }

	_, err := Load(flags, changed)
	require.ErrorIs(t, err, ErrInvalidContextDays)
}

func TestNormalizeExtensionsLowercasesAndSplits(t *testing.T) {
	got := normalizeExtensions([]string{".PY .GO", ".Rs"})
	assert.Equal(t, []string{".py", ".go", ".rs"}, got)
}
