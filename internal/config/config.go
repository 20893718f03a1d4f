// Package config loads and validates bookbuilder.yaml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "bookbuilder.yaml"

// Config is the complete build configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
	Steps   StepsConfig   `yaml:"steps"`
	History HistoryConfig `yaml:"history"`
	Preview PreviewConfig `yaml:"preview"`

	// BaseDir is the directory relative paths are resolved against. It is the
	// directory of the loaded file and never serialized.
	BaseDir string `yaml:"-"`
}

// SiteConfig holds book-wide presentation settings.
type SiteConfig struct {
	Title    string `yaml:"title"`
	Language string `yaml:"language,omitempty"`
}

// SourceConfig locates the manuscript.
type SourceConfig struct {
	Directory string `yaml:"directory"`
	Chapters  string `yaml:"chapters"`
	Layout    string `yaml:"layout,omitempty"`
	// Content selects the layout element that receives each page body.
	Content    string   `yaml:"content,omitempty"`
	Assets     []string `yaml:"assets,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// OutputConfig controls where the rendered book goes.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Clean replaces the whole output directory. When false, rendered files
	// are copied over the existing tree and unrelated files survive.
	Clean *bool `yaml:"clean,omitempty"`
}

// BuildConfig tunes the page pipeline.
type BuildConfig struct {
	Workers      int   `yaml:"workers"`
	Strict       bool  `yaml:"strict"`
	RewriteLinks *bool `yaml:"rewrite_links,omitempty"`
	// CheckLinks verifies links between staged pages before publishing.
	CheckLinks bool `yaml:"check_links,omitempty"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HistoryConfig enables the build history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// PreviewConfig configures `bookbuilder serve`.
type PreviewConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics"`
}

// Load reads, expands, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, ferrors.FileSystemError("failed to read configuration file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, ferrors.FileSystemError("failed to resolve configuration directory").WithCause(err).Build()
	}
	cfg.BaseDir = abs
	return cfg, nil
}

// Parse decodes configuration bytes. Environment variables referenced as
// ${VAR} are expanded before decoding. Defaults are applied and the result is
// validated.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve makes p absolute relative to the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := c.BaseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// SourceDir is the absolute manuscript directory.
func (c *Config) SourceDir() string { return c.Resolve(c.Source.Directory) }

// ChaptersPath is the chapter metadata file. Relative paths are resolved
// against the manuscript directory.
func (c *Config) ChaptersPath() string {
	if filepath.IsAbs(c.Source.Chapters) {
		return c.Source.Chapters
	}
	return filepath.Join(c.SourceDir(), c.Source.Chapters)
}

// OutputDir is the absolute output directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Output.Directory) }

// HistoryPath is the absolute history database path.
func (c *Config) HistoryPath() string { return c.Resolve(c.History.Path) }

// LayoutPath is the layout file, or empty for the built-in layout.
func (c *Config) LayoutPath() string { return c.Resolve(c.Source.Layout) }

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Config{
		Site: SiteConfig{Title: "My Book", Language: "en"},
		Source: SourceConfig{
			Directory: "manuscript",
			Chapters:  "chapters.yaml",
			Assets:    []string{"images"},
		},
		Output: OutputConfig{Directory: "_book"},
		Build:  BuildConfig{Workers: 4},
		Logging: LoggingConfig{
			Level:  string(LogLevelInfo),
			Format: string(LogFormatText),
		},
		History: HistoryConfig{Path: ".bookbuilder/history.db"},
		Preview: PreviewConfig{Port: 3000},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.InternalError("failed to marshal config").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return nil
}
