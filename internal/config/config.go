// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/agendeid-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agendeid configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server is the AgendeID backend.
	Server ServerConfig `toml:"server" json:"server"`

	// Chat holds conversation behavior.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI holds terminal presentation settings.
	UI UIConfig `toml:"ui" json:"ui"`

	// Storage holds transcript persistence settings.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Logging holds the diagnostic log settings.
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ServerConfig describes how to reach the backend.
type ServerConfig struct {
	// URL is the backend origin, e.g. http://127.0.0.1:5000
	URL string `toml:"url" json:"url"`
	// ChatPath is the chat endpoint
	ChatPath string `toml:"chat_path" json:"chat_path"`
	// SessionPath is the session check endpoint
	SessionPath string `toml:"session_path" json:"session_path"`
	// StatusPath is the health endpoint
	StatusPath string `toml:"status_path" json:"status_path"`
	// PagePath is scraped for the csrf-token meta tag
	PagePath string `toml:"page_path" json:"page_path"`
	// Dialect of the request body: "pt" ({"mensagem"}) or "en" ({"message"})
	Dialect string `toml:"dialect" json:"dialect"`
	// CSRFToken, when set, skips scraping
	CSRFToken string `toml:"csrf_token" json:"csrf_token"`
	// TimeoutSecs is the per-request timeout
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RateLimitPerMinute throttles sends; negative disables
	RateLimitPerMinute int `toml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// ChatConfig contains conversation settings.
type ChatConfig struct {
	// Page is the starting page: "public", "client" or "staff"
	Page string `toml:"page" json:"page"`
	// MaxMessageLength is the outgoing message limit in characters
	MaxMessageLength int `toml:"max_message_length" json:"max_message_length"`
	// MaxRetries is the failure count at which the connection shows as degraded
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RegistrationKeyword starts the registration checklist
	RegistrationKeyword string `toml:"registration_keyword" json:"registration_keyword"`
	// LoginKeyword starts the login checklist
	LoginKeyword string `toml:"login_keyword" json:"login_keyword"`
	// ConnectionCheckSecs is the session and status check interval
	ConnectionCheckSecs int `toml:"connection_check_secs" json:"connection_check_secs"`
	// CommandHints answers incomplete staff commands locally
	CommandHints bool `toml:"command_hints" json:"command_hints"`
	// DisplayLimit is the number of rendered messages kept on screen
	DisplayLimit int `toml:"display_limit" json:"display_limit"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// Hyperlinks emits clickable OSC 8 links
	Hyperlinks bool `toml:"hyperlinks" json:"hyperlinks"`
	// ShowTimestamps prints the time next to each message
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// ShowSidebar shows the field checklist next to the chat
	ShowSidebar bool `toml:"show_sidebar" json:"show_sidebar"`
}

// StorageConfig contains transcript storage configuration.
type StorageConfig struct {
	// Enabled turns on transcript recording
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path of the SQLite database (empty = ~/.agendeid/transcripts.db)
	Path string `toml:"path" json:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`
	// File is the log file (empty = ~/.agendeid/agendeid.log)
	File string `toml:"file" json:"file"`
}

// Timeout returns the request timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// ConnectionCheckInterval returns the periodic check interval.
func (c ChatConfig) ConnectionCheckInterval() time.Duration {
	return time.Duration(c.ConnectionCheckSecs) * time.Second
}

// ResolvedPath returns the database path with defaults and "~" applied.
func (s StorageConfig) ResolvedPath() string {
	if s.Path == "" {
		return defaultFile("transcripts.db")
	}
	return util.ExpandHome(s.Path)
}

// ResolvedFile returns the log file path with defaults and "~" applied.
func (l LoggingConfig) ResolvedFile() string {
	if l.File == "" {
		return defaultFile("agendeid.log")
	}
	return util.ExpandHome(l.File)
}

func defaultFile(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			URL:                "http://127.0.0.1:5000",
			ChatPath:           "/chat",
			SessionPath:        "/verificar-sessao",
			StatusPath:         "/status",
			PagePath:           "/",
			Dialect:            "pt",
			TimeoutSecs:        15,
			RateLimitPerMinute: 30,
		},
		Chat: ChatConfig{
			Page:                "public",
			MaxMessageLength:    1000,
			MaxRetries:          3,
			RegistrationKeyword: "cadastro",
			LoginKeyword:        "login",
			ConnectionCheckSecs: 30,
			DisplayLimit:        100,
		},
		UI: UIConfig{
			Theme:          "dark",
			Hyperlinks:     true,
			ShowTimestamps: true,
			ShowSidebar:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the agendeid configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".agendeid"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ActivePath returns the config file Load would read, or the TOML path when
// neither file exists.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=value pairs from the given .env files into the
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// dotEnvPaths are the .env files read by Load.
func dotEnvPaths() []string {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	return paths
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// .env files and environment overrides are applied last.
func Load() (*Config, error) {
	if err := LoadDotEnv(dotEnvPaths()...); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Defaults are returned with the load error for informational purposes.
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# agendeid configuration file\n")
	buf.WriteString("# Environment variables (AGENDEID_*) override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validDialects  = []string{"pt", "en"}
	validPages     = []string{"public", "client", "staff"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validThemes    = []string{"dark", "light"}
)

// Validate validates the configuration and returns ValidateErrors when any
// field is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{Field: "server.url", Message: fmt.Sprintf("invalid URL %q (must be http or https)", c.Server.URL)})
	}
	for field, p := range map[string]string{
		"server.chat_path":    c.Server.ChatPath,
		"server.session_path": c.Server.SessionPath,
		"server.status_path":  c.Server.StatusPath,
		"server.page_path":    c.Server.PagePath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("path %q must start with /", p)})
		}
	}
	if !contains(validDialects, c.Server.Dialect) {
		errs = append(errs, ValidationError{Field: "server.dialect", Message: fmt.Sprintf("must be one of %v", validDialects)})
	}
	if c.Server.TimeoutSecs <= 0 || c.Server.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{Field: "server.timeout_secs", Message: "must be between 1 and 300"})
	}

	if !contains(validPages, c.Chat.Page) {
		errs = append(errs, ValidationError{Field: "chat.page", Message: fmt.Sprintf("must be one of %v", validPages)})
	}
	if c.Chat.MaxMessageLength <= 0 {
		errs = append(errs, ValidationError{Field: "chat.max_message_length", Message: "must be positive"})
	}
	if c.Chat.MaxRetries <= 0 {
		errs = append(errs, ValidationError{Field: "chat.max_retries", Message: "must be positive"})
	}
	if strings.TrimSpace(c.Chat.RegistrationKeyword) == "" {
		errs = append(errs, ValidationError{Field: "chat.registration_keyword", Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Chat.LoginKeyword) == "" {
		errs = append(errs, ValidationError{Field: "chat.login_keyword", Message: "must not be empty"})
	}
	if c.Chat.ConnectionCheckSecs < 5 {
		errs = append(errs, ValidationError{Field: "chat.connection_check_secs", Message: "must be at least 5"})
	}
	if c.Chat.DisplayLimit <= 0 {
		errs = append(errs, ValidationError{Field: "chat.display_limit", Message: "must be positive"})
	}

	if !contains(validThemes, c.UI.Theme) {
		errs = append(errs, ValidationError{Field: "ui.theme", Message: fmt.Sprintf("must be one of %v", validThemes)})
	}
	if !contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("must be one of %v", validLogLevels)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}

	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.ChatPath == "" {
		c.Server.ChatPath = d.Server.ChatPath
	}
	if c.Server.SessionPath == "" {
		c.Server.SessionPath = d.Server.SessionPath
	}
	if c.Server.StatusPath == "" {
		c.Server.StatusPath = d.Server.StatusPath
	}
	if c.Server.PagePath == "" {
		c.Server.PagePath = d.Server.PagePath
	}
	if c.Server.Dialect == "" {
		c.Server.Dialect = d.Server.Dialect
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = d.Server.RateLimitPerMinute
	}

	if c.Chat.Page == "" {
		c.Chat.Page = d.Chat.Page
	}
	if c.Chat.MaxMessageLength == 0 {
		c.Chat.MaxMessageLength = d.Chat.MaxMessageLength
	}
	if c.Chat.MaxRetries == 0 {
		c.Chat.MaxRetries = d.Chat.MaxRetries
	}
	if c.Chat.RegistrationKeyword == "" {
		c.Chat.RegistrationKeyword = d.Chat.RegistrationKeyword
	}
	if c.Chat.LoginKeyword == "" {
		c.Chat.LoginKeyword = d.Chat.LoginKeyword
	}
	if c.Chat.ConnectionCheckSecs == 0 {
		c.Chat.ConnectionCheckSecs = d.Chat.ConnectionCheckSecs
	}
	if c.Chat.DisplayLimit == 0 {
		c.Chat.DisplayLimit = d.Chat.DisplayLimit
	}

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AGENDEID_SERVER_URL: overrides server.url
//   - AGENDEID_DIALECT: overrides server.dialect
//   - AGENDEID_CSRF_TOKEN: overrides server.csrf_token
//   - AGENDEID_PAGE: overrides chat.page
//   - AGENDEID_LOG_LEVEL: overrides logging.level
//   - AGENDEID_LOG_FILE: overrides logging.file
//   - AGENDEID_STORAGE: "1"/"true" enables transcripts, "0"/"false" disables,
//     anything else is taken as the database path and enables them
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AGENDEID_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("AGENDEID_DIALECT"); v != "" {
		c.Server.Dialect = strings.ToLower(v)
	}
	if v := os.Getenv("AGENDEID_CSRF_TOKEN"); v != "" {
		c.Server.CSRFToken = v
	}
	if v := os.Getenv("AGENDEID_PAGE"); v != "" {
		c.Chat.Page = strings.ToLower(v)
	}
	if v := os.Getenv("AGENDEID_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("AGENDEID_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("AGENDEID_STORAGE"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			c.Storage.Enabled = true
		case "0", "false", "no":
			c.Storage.Enabled = false
		default:
			c.Storage.Enabled = true
			c.Storage.Path = v
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.page").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.CSRFToken != "" {
		safe.Server.CSRFToken = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
