// Package config loads pybridge.toml and tracks per-workspace settings.
package config

// ToolConfig holds the executable path and enable flag for one external tool.
type ToolConfig struct {
	Enabled *bool    `toml:"enabled"`
	Path    string   `toml:"path"`
	Args    []string `toml:"args"`
}

// IsEnabled resolves the tri-state flag against a default.
func (t ToolConfig) IsEnabled(def bool) bool {
	if t.Enabled == nil {
		return def
	}
	return *t.Enabled
}

// PathOr returns the configured path, or fallback when unset.
func (t ToolConfig) PathOr(fallback string) string {
	if t.Path != "" {
		return t.Path
	}
	return fallback
}

// Linting configures the lint tool family.
type Linting struct {
	Enabled *bool      `toml:"enabled"`
	Ruff    ToolConfig `toml:"ruff"`
	Pylint  ToolConfig `toml:"pylint"`
	Flake8  ToolConfig `toml:"flake8"`
	Mypy    ToolConfig `toml:"mypy"`
}

// Formatting configures document formatters.
type Formatting struct {
	Provider string     `toml:"provider"`
	Black    ToolConfig `toml:"black"`
}

// Imports configures import sorting.
type Imports struct {
	Isort ToolConfig `toml:"isort"`
}

// Python configures interpreter resolution.
type Python struct {
	// Path is the configured interpreter used when no probe matches.
	Path string `toml:"path"`
}

// Config is the full decoded pybridge.toml.
type Config struct {
	Python     Python     `toml:"python"`
	Linting    Linting    `toml:"linting"`
	Formatting Formatting `toml:"formatting"`
	Imports    Imports    `toml:"imports"`
}

// Default returns the built-in configuration: ruff on, everything else
// opt-in, interpreter "python" resolved via PATH.
func Default() Config {
	enabled := true
	var cfg Config
	cfg.Python.Path = "python"
	cfg.Linting.Ruff.Enabled = &enabled
	cfg.Formatting.Provider = "black"
	return cfg
}

// LintingEnabled reports whether the lint family is on at all.
func (c *Config) LintingEnabled() bool {
	if c.Linting.Enabled == nil {
		return true
	}
	return *c.Linting.Enabled
}

// LinterTool returns the ToolConfig for a known linter id.
func (c *Config) LinterTool(id string) (ToolConfig, bool) {
	switch id {
	case "ruff":
		return c.Linting.Ruff, true
	case "pylint":
		return c.Linting.Pylint, true
	case "flake8":
		return c.Linting.Flake8, true
	case "mypy":
		return c.Linting.Mypy, true
	}
	return ToolConfig{}, false
}

// EnabledLinters lists enabled linter ids in fixed priority order.
// Only ruff is on by default.
func (c *Config) EnabledLinters() []string {
	if !c.LintingEnabled() {
		return nil
	}
	out := make([]string, 0, 4)
	for _, id := range []string{"ruff", "pylint", "flake8", "mypy"} {
		tool, _ := c.LinterTool(id)
		if tool.IsEnabled(id == "ruff") {
			out = append(out, id)
		}
	}
	return out
}
