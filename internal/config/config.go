/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	applog "skapeditor/internal/log"
	"skapeditor/internal/palette"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
	// Autosave writes the open level every AutosaveSeconds when it has unsaved edits.
	Autosave        bool   `yaml:"autosave"`
	AutosaveSeconds int    `yaml:"autosave_seconds"`
	LevelsDir       string `yaml:"levels_dir"`
}

// EditorConfig holds the values new entities start from. Colours are hex strings.
type EditorConfig struct {
	AreaColor      string  `yaml:"area_color"`
	AreaBackground string  `yaml:"area_background"`
	AreaOpacity    float64 `yaml:"area_opacity"`
	BlockColor     string  `yaml:"block_color"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type ExportConfig struct {
	PNGScale    float64 `yaml:"png_scale"`
	PDFPageSize string  `yaml:"pdf_page_size"` // "A4" | "Letter"
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
	Export        ExportConfig  `yaml:"export"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", Autosave: true, AutosaveSeconds: 60, LevelsDir: ""},
		Editor:        EditorConfig{AreaColor: "#000a57", AreaBackground: "#e6e6e6", AreaOpacity: 0.8, BlockColor: "#000000"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Export:        ExportConfig{PNGScale: 4, PDFPageSize: "A4"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile   = "SKAP_CONFIG"
	EnvTheme        = "SKAP_THEME"
	EnvAutosave     = "SKAP_AUTOSAVE"
	EnvLevelsDir    = "SKAP_LEVELS_DIR"
	EnvAreaColor    = "SKAP_AREA_COLOR"
	EnvBlockColor   = "SKAP_BLOCK_COLOR"
	EnvPNGScale     = "SKAP_PNG_SCALE"
	EnvPDFPageSize  = "SKAP_PDF_PAGE_SIZE"
	EnvLogLevel     = "SKAP_LOG_LEVEL"
	EnvLogFormat    = "SKAP_LOG_FORMAT"
	EnvLogSource    = "SKAP_LOG_SOURCE"
	EnvLogFile      = "SKAP_LOG_FILE"
	configDirName   = "skapeditor"
	configFileName  = "config.yaml"
	maxAutosaveSecs = 3600
)

// ConfigPath returns the per-user config file path. SKAP_CONFIG replaces it entirely.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error.
// A malformed file is reported, the returned config still carries defaults and env overrides.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		loadErr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, loadErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports every invalid field at once.
func (c AppConfig) Validate() error {
	var errs []error
	for key, v := range map[string]string{
		"editor.area_color":      c.Editor.AreaColor,
		"editor.area_background": c.Editor.AreaBackground,
		"editor.block_color":     c.Editor.BlockColor,
	} {
		if !palette.ValidHex(v) {
			errs = append(errs, fmt.Errorf("%s: invalid hex colour %q", key, v))
		}
	}
	if c.Editor.AreaOpacity < 0 || c.Editor.AreaOpacity > 1 {
		errs = append(errs, fmt.Errorf("editor.area_opacity: %v out of [0,1]", c.Editor.AreaOpacity))
	}
	if c.Export.PNGScale <= 0 {
		errs = append(errs, fmt.Errorf("export.png_scale: must be positive, got %v", c.Export.PNGScale))
	}
	switch c.Export.PDFPageSize {
	case "A4", "Letter":
	default:
		errs = append(errs, fmt.Errorf("export.pdf_page_size: unsupported %q", c.Export.PDFPageSize))
	}
	if c.General.AutosaveSeconds < 0 || c.General.AutosaveSeconds > maxAutosaveSecs {
		errs = append(errs, fmt.Errorf("general.autosave_seconds: %d out of [0,%d]", c.General.AutosaveSeconds, maxAutosaveSecs))
	}
	return errors.Join(errs...)
}

// Options maps the logging section onto logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func (e EditorConfig) AreaColorRGB() palette.RGB      { return palette.ParseHex(e.AreaColor) }
func (e EditorConfig) AreaBackgroundRGB() palette.RGB { return palette.ParseHex(e.AreaBackground) }
func (e EditorConfig) BlockColorRGB() palette.RGB     { return palette.ParseHex(e.BlockColor) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.Autosave = src.General.Autosave
	if src.General.AutosaveSeconds != 0 {
		dst.General.AutosaveSeconds = src.General.AutosaveSeconds
	}
	if strings.TrimSpace(src.General.LevelsDir) != "" {
		dst.General.LevelsDir = strings.TrimSpace(src.General.LevelsDir)
	}
	// editor
	if v := normalizeHex(src.Editor.AreaColor); v != "" {
		dst.Editor.AreaColor = v
	}
	if v := normalizeHex(src.Editor.AreaBackground); v != "" {
		dst.Editor.AreaBackground = v
	}
	if v := normalizeHex(src.Editor.BlockColor); v != "" {
		dst.Editor.BlockColor = v
	}
	if src.Editor.AreaOpacity != 0 {
		dst.Editor.AreaOpacity = src.Editor.AreaOpacity
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// export
	if src.Export.PNGScale != 0 {
		dst.Export.PNGScale = src.Export.PNGScale
	}
	if strings.TrimSpace(src.Export.PDFPageSize) != "" {
		dst.Export.PDFPageSize = strings.TrimSpace(src.Export.PDFPageSize)
	}
}

func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "" && !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return s
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosave)); v != "" {
		cfg.General.Autosave = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLevelsDir)); v != "" {
		cfg.General.LevelsDir = v
	}
	if v := normalizeHex(os.Getenv(EnvAreaColor)); v != "" {
		cfg.Editor.AreaColor = v
	}
	if v := normalizeHex(os.Getenv(EnvBlockColor)); v != "" {
		cfg.Editor.BlockColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPNGScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Export.PNGScale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPDFPageSize)); v != "" {
		cfg.Export.PDFPageSize = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"general.theme":        EnvTheme,
	"general.autosave":     EnvAutosave,
	"general.levels_dir":   EnvLevelsDir,
	"editor.area_color":    EnvAreaColor,
	"editor.block_color":   EnvBlockColor,
	"export.png_scale":     EnvPNGScale,
	"export.pdf_page_size": EnvPDFPageSize,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
