// =============================================================================
// Purchase Order Form Engine - Configuration Module
// =============================================================================
//
// This module loads the application configuration from config.yaml and
// applies environment overrides.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (DefaultMainConfig)
//   2. config.yaml (LoadMainConfig)
//   3. Environment variables with the PO_ prefix, plus OPENAI_API_KEY
//      (ApplyOverrides, via viper; .env files are loaded by the CLI)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
)

// EnvPrefix prefixes every environment override ("PO_SERVER_ADDR").
const EnvPrefix = "PO"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the batch processor for *.html forms.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated XML and side outputs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed forms after a successful export.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated XML file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to
	// stderr only.
	// Default: "./logs/poform.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// OutputNameFormat names output files. Placeholders: {uuid},
	// {timestamp}, {po}, {name}.
	// Default: "{name}_{timestamp}_{uuid}.xml"
	OutputNameFormat string `yaml:"output_name_format"`

	// MaxConcurrency bounds the number of forms exported at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps the batch going after a failed form.
	ContinueOnError bool `yaml:"continue_on_error"`

	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Editor  EditorConfig  `yaml:"editor"`
	Export  ExportConfig  `yaml:"export"`
	Columns ColumnsConfig `yaml:"columns"`
}

// ServerConfig configures the HTTP editor API.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `yaml:"addr"`

	// AllowedOrigins are the CORS origins. Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OpenAIConfig configures the LLM generator and the /api/chatgpt proxy.
type OpenAIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// EditorConfig holds the reorder policy.
type EditorConfig struct {
	// AllowRowReorder enables dragging line-item rows. Default: false
	AllowRowReorder bool `yaml:"allow_row_reorder"`

	// DragOverDebounce delays drop-zone highlighting. Default: 50ms
	DragOverDebounce time.Duration `yaml:"drag_over_debounce"`
}

// ExportConfig controls the XML export and its side outputs.
type ExportConfig struct {
	// DefaultHeaderColor is used when the form carries no header color.
	// Default: "#333333"
	DefaultHeaderColor string `yaml:"default_header_color"`

	// RequirePreviewAnchor fails exports of forms without the
	// #xmlModal/#xmlOutput preview container.
	RequirePreviewAnchor bool `yaml:"require_preview_anchor"`

	// WriteXLSX and WritePDF produce side outputs next to the XML.
	WriteXLSX bool `yaml:"write_xlsx"`
	WritePDF  bool `yaml:"write_pdf"`

	// Transforms rewrite snapshot fields before the XML is generated.
	Transforms []TransformationRule `yaml:"transforms"`
}

// ColumnsConfig overrides the header keyword rules of the column mapper.
type ColumnsConfig struct {
	// Rules are tried in order; the first keyword contained in a header
	// wins. Empty uses the built-in list.
	Rules []ColumnRule `yaml:"rules"`
}

// ColumnRule maps a header keyword to a column kind name.
type ColumnRule struct {
	Keyword string `yaml:"keyword"`
	Kind    string `yaml:"kind"`
}

// TransformationRule defines the actions applied to one field.
type TransformationRule struct {
	// Field is the field name ("poNumber", "lineItem1Desc").
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction is a single transformation step.
type TransformationAction struct {
	// Type names the action ("uppercase", "prepend_string", "lookup", ...).
	Type string `yaml:"type"`

	// Value is the action argument.
	Value string `yaml:"value"`

	// Find is the search string of "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps values for "lookup" actions.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// DefaultMainConfig returns the configuration used when no file exists.
func DefaultMainConfig() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file. A missing
// file yields the defaults.
//
// PARAMETERS:
//   - configPath: The path to the config.yaml file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the configuration is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var cfg MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyMainConfigDefaults sets default values for unset configuration fields.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/poform.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{name}_{timestamp}_{uuid}.xml"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"*"}
	}

	if config.OpenAI.BaseURL == "" {
		config.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if config.OpenAI.Model == "" {
		config.OpenAI.Model = "gpt-4o-mini"
	}
	if config.OpenAI.MaxTokens == 0 {
		config.OpenAI.MaxTokens = 2000
	}
	if config.OpenAI.Temperature == 0 {
		config.OpenAI.Temperature = 0.7
	}
	if config.OpenAI.Timeout == 0 {
		config.OpenAI.Timeout = 30 * time.Second
	}
	if config.OpenAI.MaxRetries == 0 {
		config.OpenAI.MaxRetries = 3
	}
	if config.OpenAI.RetryBackoff == 0 {
		config.OpenAI.RetryBackoff = 2 * time.Second
	}

	if config.Editor.DragOverDebounce == 0 {
		config.Editor.DragOverDebounce = 50 * time.Millisecond
	}
	if config.Export.DefaultHeaderColor == "" {
		config.Export.DefaultHeaderColor = "#333333"
	}
}

// Validate checks the configuration for errors.
func (c *MainConfig) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Editor.DragOverDebounce < 0 {
		return fmt.Errorf("editor.drag_over_debounce must not be negative")
	}
	if _, err := c.ColumnRules(); err != nil {
		return err
	}
	for i, rule := range c.Export.Transforms {
		if rule.Field == "" {
			return fmt.Errorf("export.transforms[%d]: field is required", i)
		}
	}
	return nil
}

// EnsureDirectories creates the working directories when missing.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{
		c.InputDir,
		c.OutputDir,
		c.InputArchiveDir,
		c.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// ColumnRules converts the configured keyword rules. Nil means the
// built-in list.
func (c *MainConfig) ColumnRules() ([]columns.Rule, error) {
	if len(c.Columns.Rules) == 0 {
		return nil, nil
	}
	out := make([]columns.Rule, 0, len(c.Columns.Rules))
	for i, r := range c.Columns.Rules {
		kind, ok := columns.ParseKind(r.Kind)
		if !ok || r.Keyword == "" {
			return nil, fmt.Errorf("columns.rules[%d]: invalid rule %q -> %q", i, r.Keyword, r.Kind)
		}
		out = append(out, columns.Rule{Keyword: r.Keyword, Kind: kind})
	}
	return out, nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// overrides lists the keys that can be set from the environment.
var overrides = []struct {
	key   string
	apply func(c *MainConfig, v *viper.Viper)
}{
	{"input_dir", func(c *MainConfig, v *viper.Viper) { c.InputDir = v.GetString("input_dir") }},
	{"output_dir", func(c *MainConfig, v *viper.Viper) { c.OutputDir = v.GetString("output_dir") }},
	{"log_level", func(c *MainConfig, v *viper.Viper) { c.LogLevel = v.GetString("log_level") }},
	{"log_file", func(c *MainConfig, v *viper.Viper) { c.LogFile = v.GetString("log_file") }},
	{"max_concurrency", func(c *MainConfig, v *viper.Viper) { c.MaxConcurrency = v.GetInt("max_concurrency") }},
	{"server.addr", func(c *MainConfig, v *viper.Viper) { c.Server.Addr = v.GetString("server.addr") }},
	{"openai.api_key", func(c *MainConfig, v *viper.Viper) { c.OpenAI.APIKey = v.GetString("openai.api_key") }},
	{"openai.base_url", func(c *MainConfig, v *viper.Viper) { c.OpenAI.BaseURL = v.GetString("openai.base_url") }},
	{"openai.model", func(c *MainConfig, v *viper.Viper) { c.OpenAI.Model = v.GetString("openai.model") }},
	{"editor.allow_row_reorder", func(c *MainConfig, v *viper.Viper) {
		c.Editor.AllowRowReorder = v.GetBool("editor.allow_row_reorder")
	}},
	{"export.default_header_color", func(c *MainConfig, v *viper.Viper) {
		c.Export.DefaultHeaderColor = v.GetString("export.default_header_color")
	}},
	{"export.write_xlsx", func(c *MainConfig, v *viper.Viper) { c.Export.WriteXLSX = v.GetBool("export.write_xlsx") }},
	{"export.write_pdf", func(c *MainConfig, v *viper.Viper) { c.Export.WritePDF = v.GetBool("export.write_pdf") }},
}

// NewViper returns a viper instance bound to the PO_ environment variables
// of every overridable key. openai.api_key also reads OPENAI_API_KEY.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, o := range overrides {
		if o.key == "openai.api_key" {
			_ = v.BindEnv(o.key, EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
			continue
		}
		_ = v.BindEnv(o.key)
	}
	return v
}

// ApplyOverrides copies every key set in v (environment or bound flags)
// into c and validates the result.
func ApplyOverrides(c *MainConfig, v *viper.Viper) error {
	for _, o := range overrides {
		if v.IsSet(o.key) {
			o.apply(c, v)
		}
	}
	applyMainConfigDefaults(c)
	return c.Validate()
}
