// =============================================================================
// ecvt-build - Configuration Module
// =============================================================================
//
// This module loads the build settings. Every setting has a compiled-in
// default, so the settings file is optional: running ecvt-build in a checkout
// containing ecvt.scad and ecvt.json renders all parts for all parameter sets.
//
// CONFIGURATION SOURCES (later wins):
//   1. Compiled-in defaults (see applyDefaults)
//   2. Build settings file (ecvt-build.yaml)
//   3. Command-line flags (applied by the cmd package)
//
// The parameter sets themselves live in the JSON parameter file and are
// loaded by the params package.
//
// =============================================================================

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultConfigFile is the settings file looked up when --config is not given.
const DefaultConfigFile = "ecvt-build.yaml"

// DefaultParts is the ordered list of sub-models rendered from ecvt.scad.
var DefaultParts = []string{
	"assembly",
	"planetary_gear",
	"carrier",
	"sun_shaft",
	"planet_shaft",
	"shaft_handle",
	"small_gear",
	"small_gear_reverse",
	"small_shaft",
	"small_shaft_h",
	"base",
}

// =============================================================================
// BUILD CONFIGURATION STRUCTURE
// =============================================================================

// BuildConfig holds the settings for one build run.
type BuildConfig struct {
	// =========================================================================
	// TOOL SETTINGS
	// =========================================================================

	// OpenSCADPath is an explicit path to the OpenSCAD executable.
	// When set, discovery is skipped and the path is used verbatim.
	OpenSCADPath string `yaml:"openscad_path"`

	// OpenSCADCandidates replaces the platform's default discovery list.
	OpenSCADCandidates []string `yaml:"openscad_candidates"`

	// UseManifold adds --backend=manifold to every invocation.
	// Default: true
	UseManifold *bool `yaml:"use_manifold"`

	// HardWarnings adds --hardwarnings to every invocation.
	// Default: false
	HardWarnings bool `yaml:"hard_warnings"`

	// =========================================================================
	// INPUT / OUTPUT SETTINGS
	// =========================================================================

	// ModelFile is the shared parametric model.
	// Default: "ecvt.scad"
	ModelFile string `yaml:"model_file"`

	// ParamsFile is the JSON file holding the parameter sets.
	// Default: "ecvt.json"
	ParamsFile string `yaml:"params_file"`

	// BuildFolder is wiped and recreated on every run.
	// Default: "build"
	BuildFolder string `yaml:"build_folder"`

	// MeshExtension is the output file extension, which also selects the
	// export format inside OpenSCAD.
	// Default: "stl"
	MeshExtension string `yaml:"mesh_extension"`

	// PartVariable is the model variable that selects which part to render.
	// Default: "selected_part"
	PartVariable string `yaml:"part_variable"`

	// Parts is the ordered list of parts to render for each parameter set.
	// Default: DefaultParts
	Parts []string `yaml:"parts"`

	// =========================================================================
	// RUN SETTINGS
	// =========================================================================

	// Jobs is the number of OpenSCAD processes run at once.
	// 1 renders sequentially; 0 means one per CPU.
	// Default: 1
	Jobs *int `yaml:"jobs"`

	// ReportPath, when set, receives an XLSX build report.
	// It must not be inside BuildFolder.
	ReportPath string `yaml:"report_path"`

	// SummaryDir, when set, receives a plain-text run summary.
	SummaryDir string `yaml:"summary_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// Manifold reports whether the manifold backend is enabled.
func (c *BuildConfig) Manifold() bool {
	return c.UseManifold == nil || *c.UseManifold
}

// JobCount returns the configured worker count (before CPU capping).
func (c *BuildConfig) JobCount() int {
	if c.Jobs == nil {
		return 1
	}
	return *c.Jobs
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a BuildConfig populated with defaults only.
func Default() *BuildConfig {
	var cfg BuildConfig
	applyDefaults(&cfg)
	return &cfg
}

// Load reads the build settings from configPath.
//
// PARAMETERS:
//   - configPath: The path to the settings file.
//   - required:   When false, a missing file yields the defaults.
//
// RETURNS:
//   - A pointer to the BuildConfig struct with defaults applied.
//   - An error if the file cannot be read or parsed, or is invalid.
func Load(configPath string, required bool) (*BuildConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML build settings, applies defaults and validates them.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*BuildConfig, error) {
	var cfg BuildConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *BuildConfig) {
	if cfg.ModelFile == "" {
		cfg.ModelFile = "ecvt.scad"
	}
	if cfg.ParamsFile == "" {
		cfg.ParamsFile = "ecvt.json"
	}
	if cfg.BuildFolder == "" {
		cfg.BuildFolder = "build"
	}
	if cfg.MeshExtension == "" {
		cfg.MeshExtension = "stl"
	}
	cfg.MeshExtension = strings.TrimPrefix(cfg.MeshExtension, ".")
	if cfg.PartVariable == "" {
		cfg.PartVariable = "selected_part"
	}
	if len(cfg.Parts) == 0 {
		cfg.Parts = append([]string(nil), DefaultParts...)
	}
	if cfg.UseManifold == nil {
		enabled := true
		cfg.UseManifold = &enabled
	}
	if cfg.Jobs == nil {
		jobs := 1
		cfg.Jobs = &jobs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

// validate checks settings that can be judged without touching the
// filesystem. Plan-level checks live in the validation package.
func validate(cfg *BuildConfig) error {
	if *cfg.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0, got %d", *cfg.Jobs)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q is not one of text, json", cfg.LogFormat)
	}

	if !isIdentifier(cfg.PartVariable) {
		return fmt.Errorf("part_variable %q is not a valid OpenSCAD identifier", cfg.PartVariable)
	}

	return nil
}

// isIdentifier reports whether s is usable as the left side of an OpenSCAD
// -D assignment.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
