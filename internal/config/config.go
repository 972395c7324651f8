package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"workboard/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigDir overrides ~/.workboard (keeps tests away from the real home dir).
	EnvConfigDir = "WORKBOARD_CONFIG_DIR"

	fileName          = "config.yaml"
	DefaultDateLayout = "2006-01-02 15:04"
)

type Config struct {
	// Categories are the board columns, in display order. Fixed for the session.
	Categories []string `yaml:"categories"`

	// DB is an optional SQLite mirror file. Empty keeps the board in memory only.
	DB string `yaml:"db,omitempty"`

	Log LogConfig `yaml:"log"`
	TUI TUIConfig `yaml:"tui"`
}

type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

type TUIConfig struct {
	// Theme is "auto", "light" or "dark".
	Theme      string `yaml:"theme,omitempty"`
	DateLayout string `yaml:"dateLayout,omitempty"`
}

func Default() *Config {
	cats := model.DefaultCategories()
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, string(c))
	}
	return &Config{
		Categories: names,
		Log:        LogConfig{Level: "info"},
		TUI:        TUIConfig{Theme: "auto", DateLayout: DefaultDateLayout},
	}
}

func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".workboard"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config at path (or the default path when empty). A missing file
// yields Default(). Values present in the file replace the defaults.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.DB = ExpandHome(cfg.DB)
	cfg.Log.File = ExpandHome(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if len(c.Categories) == 0 {
		c.Categories = d.Categories
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = d.Log.Level
	}
	if strings.TrimSpace(c.TUI.Theme) == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if strings.TrimSpace(c.TUI.DateLayout) == "" {
		c.TUI.DateLayout = d.TUI.DateLayout
	}
}

func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("categories: at least one is required")
	}
	seen := map[string]bool{}
	for _, name := range c.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("categories: empty label")
		}
		if seen[name] {
			return fmt.Errorf("categories: duplicate %q", name)
		}
		seen[name] = true
	}
	switch strings.ToLower(strings.TrimSpace(c.TUI.Theme)) {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("tui.theme: unknown value %q", c.TUI.Theme)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	p = strings.TrimSpace(p)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// CategoryList converts the configured labels to model categories.
func (c *Config) CategoryList() []model.Category {
	out := make([]model.Category, 0, len(c.Categories))
	for _, name := range c.Categories {
		out = append(out, model.Category(strings.TrimSpace(name)))
	}
	return out
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes cfg to path atomically (temp file + rename).
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := cfg.Marshal()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, 0o644)
	return os.Rename(tmp, path)
}
