package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/propdoc/internal/docgen"
	"github.com/starford/propdoc/internal/document"
	"github.com/starford/propdoc/internal/proptree"
	"github.com/starford/propdoc/internal/render"
	"github.com/starford/propdoc/internal/source"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Source SourceConfig      `yaml:"source"`
	Output OutputConfig      `yaml:"output"`
	Render RenderConfig      `yaml:"render"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig says where the property hierarchy comes from.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
	Root string `yaml:"root"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(source.KindYAML, source.KindSQLite)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Root, validation.When(c.Kind == source.KindSQLite, validation.Required)),
	)
}

// OutputConfig holds the destination and the caller-supplied header and
// footer files. File is relative to Dir.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	File       string `yaml:"file"`
	HeaderPath string `yaml:"header_path"`
	FooterPath string `yaml:"footer_path"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.File, validation.Required),
	)
}

// RenderConfig holds the formatting constants of the generated document.
type RenderConfig struct {
	IndentSize        int               `yaml:"indent_size"`
	IndentUnit        string            `yaml:"indent_unit"`
	SectionTitle      string            `yaml:"section_title"`
	Separator         string            `yaml:"separator"`
	TrailingSeparator string            `yaml:"trailing_separator"`
	Columns           []string          `yaml:"columns"`
	CardinalityLabels map[string]string `yaml:"cardinality_labels"`
	OutlineFormat     string            `yaml:"outline_format"`
	StrictNames       bool              `yaml:"strict_names"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IndentSize, validation.Required, validation.Min(1), validation.Max(16)),
		validation.Field(&c.IndentUnit, validation.Required),
		validation.Field(&c.Columns, validation.Required, validation.Length(4, 4)),
		validation.Field(&c.CardinalityLabels, validation.Required),
		validation.Field(&c.OutlineFormat, validation.Required, validation.In(docgen.OutlineHTML, docgen.OutlineMarkdown)),
	)
}

// Renderer returns the immutable renderer configuration.
func (c *RenderConfig) Renderer() render.Config {
	cfg := render.Config{
		IndentSize: c.IndentSize,
		IndentUnit: c.IndentUnit,
		Labels:     proptree.CardinalityLabels(c.CardinalityLabels),
	}
	copy(cfg.Columns[:], c.Columns)
	return cfg
}

// Layout returns the separators and section title.
func (c *RenderConfig) Layout() document.Layout {
	return document.Layout{Separator: c.Separator, SectionTitle: c.SectionTitle, Trailer: c.TrailingSeparator}
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	rc := render.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Kind: source.KindYAML,
			Path: "./properties.yaml",
			Root: "DMP",
		},
		Output: OutputConfig{
			Dir:  ".",
			File: "properties.md",
		},
		Render: RenderConfig{
			IndentSize:        rc.IndentSize,
			IndentUnit:        rc.IndentUnit,
			SectionTitle:      document.DefaultSectionTitle,
			Separator:         document.DefaultSeparator,
			Columns:           rc.Columns[:],
			CardinalityLabels: rc.Labels,
			OutlineFormat:     docgen.OutlineHTML,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
