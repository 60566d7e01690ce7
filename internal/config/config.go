// Package config loads the miner's configuration from CLI flags, environment
// variables, and an optional YAML file, using viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Default flag values.
const (
	DefaultADLFile     = "adl.yaml"
	DefaultContextDays = 90
)

// DefaultCodeExtensions is the default accepted code-file extension set.
var DefaultCodeExtensions = []string{".py"}

// ErrInvalidContextDays is returned when context-days is below the allowed minimum.
var ErrInvalidContextDays = errors.New("context-days must be >= 1")

// MinerConfig is the fully resolved configuration handed to the Driver.
type MinerConfig struct {
	RepoPath           string
	ADLFile            string
	CodeExtensions     []string
	Output             string
	ContextDays        int
	ValidateSchema     bool
	Verbose            bool
	Quiet              bool
	MetricsFile        string
	MetricsPushGateway string
}

// Flags holds the raw values bound from cobra flags, before env/config-file
// merging via viper.
type Flags struct {
	RepoPath           string
	ADLFile            string
	CodeExtensions     []string
	Output             string
	ContextDays        int
	ValidateSchema     bool
	Verbose            bool
	Quiet              bool
	ConfigFile         string
	MetricsFile        string
	MetricsPushGateway string
}

// Load merges flags with environment variables and an optional YAML config
// file into a validated MinerConfig. Flags explicitly set on the command
// line take precedence (as does a non-empty RepoPath); viper supplies
// defaults, env vars, and config-file values for every flag not explicitly
// changed.
func Load(flags Flags, changed func(name string) bool) (*MinerConfig, error) {
	v := viper.New()

	v.SetDefault("repo", "")
	v.SetDefault("adl-file", DefaultADLFile)
	v.SetDefault("code-exts", DefaultCodeExtensions)
	v.SetDefault("output", "")
	v.SetDefault("context-days", DefaultContextDays)
	v.SetDefault("validate-schema", false)
	v.SetDefault("metrics-file", "")
	v.SetDefault("metrics-pushgateway", "")

	if bindErr := bindEnv(v); bindErr != nil {
		return nil, bindErr
	}

	if flags.ConfigFile != "" {
		v.SetConfigFile(flags.ConfigFile)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	applyFlagOverrides(v, flags, changed)

	cfg := &MinerConfig{
		RepoPath:           v.GetString("repo"),
		ADLFile:            v.GetString("adl-file"),
		CodeExtensions:     normalizeExtensions(v.GetStringSlice("code-exts")),
		Output:             v.GetString("output"),
		ContextDays:        v.GetInt("context-days"),
		ValidateSchema:     v.GetBool("validate-schema"),
		Verbose:            flags.Verbose,
		Quiet:              flags.Quiet,
		MetricsFile:        v.GetString("metrics-file"),
		MetricsPushGateway: v.GetString("metrics-pushgateway"),
	}

	if cfg.ContextDays < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidContextDays, cfg.ContextDays)
	}

	return cfg, nil
}

// bindEnv wires the documented environment-variable fallbacks.
func bindEnv(v *viper.Viper) error {
	binds := map[string]string{
		"repo":     "REPO_PATH",
		"adl-file": "ADL_FILE_PATH",
		"output":   "TRAINING_DATASET_PATH",
	}

	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	return nil
}

// applyFlagOverrides sets any flag the caller explicitly changed, so
// explicit CLI input always wins over config file and env values.
func applyFlagOverrides(v *viper.Viper, flags Flags, changed func(name string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if flags.RepoPath != "" || changed("repo") {
		v.Set("repo", flags.RepoPath)
	}

	if changed("adl-file") {
		v.Set("adl-file", flags.ADLFile)
	}

	if changed("code-exts") {
		v.Set("code-exts", flags.CodeExtensions)
	}

	if changed("output") {
		v.Set("output", flags.Output)
	}

	if changed("context-days") {
		v.Set("context-days", flags.ContextDays)
	}

	if changed("validate-schema") {
		v.Set("validate-schema", flags.ValidateSchema)
	}

	if changed("metrics-file") {
		v.Set("metrics-file", flags.MetricsFile)
	}

	if changed("metrics-pushgateway") {
		v.Set("metrics-pushgateway", flags.MetricsPushGateway)
	}
}

// normalizeExtensions lowercases each extension and expands any
// space-separated single value into multiple entries.
func normalizeExtensions(exts []string) []string {
	var expanded []string

	for _, e := range exts {
		expanded = append(expanded, strings.Fields(e)...)
	}

	for i, e := range expanded {
		expanded[i] = strings.ToLower(e)
	}

	return expanded
}
