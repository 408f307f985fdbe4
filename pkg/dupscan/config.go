package dupscan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Config holds dupscan's persisted settings, read from an INI file at
// <root>/.dupscan/config.
type Config struct {
	configPath string
	ini        *ini.File
}

// SymlinkConfig controls how the Walker treats symbolic links to files.
type SymlinkConfig struct {
	Mode string // "all" (follow, default) or "none"
}

// VerboseConfig controls default logging verbosity.
type VerboseConfig struct {
	Level int
	Debug string
}

// PerformanceConfig controls resource usage.
type PerformanceConfig struct {
	TempDir string // overrides os.TempDir() when non-empty
}

// LoadConfig loads configuration from <dupscanDir>/config, returning
// in-memory defaults if the file does not exist. Unlike a cache tool
// that owns its directory, dupscan never writes into the scanned tree
// on load: callers must call Save explicitly.
func LoadConfig(dupscanDir string) (*Config, error) {
	configPath := filepath.Join(dupscanDir, "config")

	cfg := &Config{configPath: configPath}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		return cfg, nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile
	return cfg, nil
}

func (c *Config) setDefaults() error {
	symlinkSection, err := c.ini.NewSection("symlink")
	if err != nil {
		return fmt.Errorf("failed to create symlink section: %w", err)
	}
	if _, err := symlinkSection.NewKey("mode", "all"); err != nil {
		return fmt.Errorf("failed to set default symlink mode: %w", err)
	}

	verboseSection, err := c.ini.NewSection("verbose")
	if err != nil {
		return fmt.Errorf("failed to create verbose section: %w", err)
	}
	if _, err := verboseSection.NewKey("level", "0"); err != nil {
		return fmt.Errorf("failed to set default verbose level: %w", err)
	}
	if _, err := verboseSection.NewKey("debug", ""); err != nil {
		return fmt.Errorf("failed to set default debug flags: %w", err)
	}

	performanceSection, err := c.ini.NewSection("performance")
	if err != nil {
		return fmt.Errorf("failed to create performance section: %w", err)
	}
	if _, err := performanceSection.NewKey("temp_dir", ""); err != nil {
		return fmt.Errorf("failed to set default temp dir: %w", err)
	}

	return nil
}

// GetSymlinkConfig returns the symlink configuration.
func (c *Config) GetSymlinkConfig() *SymlinkConfig {
	cfg := &SymlinkConfig{Mode: "all"}
	if c.ini.HasSection("symlink") {
		section := c.ini.Section("symlink")
		if section.HasKey("mode") {
			cfg.Mode = section.Key("mode").String()
		}
	}
	return cfg
}

// GetVerboseConfig returns the logging configuration.
func (c *Config) GetVerboseConfig() *VerboseConfig {
	cfg := &VerboseConfig{Level: 0, Debug: ""}
	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				cfg.Level = level
			}
		}
		if section.HasKey("debug") {
			cfg.Debug = section.Key("debug").String()
		}
	}
	return cfg
}

// GetPerformanceConfig returns the performance configuration.
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	cfg := &PerformanceConfig{TempDir: ""}
	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("temp_dir") {
			cfg.TempDir = section.Key("temp_dir").String()
		}
	}
	return cfg
}

// SetSymlinkMode sets and persists the symlink mode.
func (c *Config) SetSymlinkMode(mode string) error {
	c.SetSymlinkModeInMemory(mode)
	return c.Save()
}

// SetSymlinkModeInMemory sets the symlink mode for the current process
// without writing it to disk, for a CLI flag that overrides the
// persisted config for one run only.
func (c *Config) SetSymlinkModeInMemory(mode string) {
	c.ini.Section("symlink").Key("mode").SetValue(mode)
}

// SetVerboseLevel sets the persisted verbose level.
func (c *Config) SetVerboseLevel(level int) error {
	c.ini.Section("verbose").Key("level").SetValue(fmt.Sprintf("%d", level))
	return c.Save()
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return c.ini.SaveTo(c.configPath)
}

// ValidateSymlinkMode validates a symlink mode string.
func ValidateSymlinkMode(mode string) error {
	switch strings.ToLower(mode) {
	case "all", "none":
		return nil
	default:
		return fmt.Errorf("unsupported symlink mode: %s (supported: all, none)", mode)
	}
}

// EffectiveTempDir returns cfg's configured temp dir, or the OS default
// when cfg is nil or unset.
func EffectiveTempDir(cfg *Config) string {
	if cfg != nil {
		if perf := cfg.GetPerformanceConfig(); perf.TempDir != "" {
			return perf.TempDir
		}
	}
	return os.TempDir()
}
