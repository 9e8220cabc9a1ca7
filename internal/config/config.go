package config

import (
	"dario.cat/mergo"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
)

// Config represents the application configuration
type Config struct {
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Browser  BrowserConfig  `yaml:"browser,omitempty"`
	Platform PlatformConfig `yaml:"platform,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// AuthConfig describes the authorization server and how the login should be presented
type AuthConfig struct {
	// Issuer enables OIDC discovery of the endpoints.  When empty AuthorizeURL and TokenURL are used as-is.
	Issuer       string   `yaml:"issuer,omitempty"`
	AuthorizeURL string   `yaml:"authorize_url,omitempty"`
	TokenURL     string   `yaml:"token_url,omitempty"`
	ClientID     string   `yaml:"client_id,omitempty"`
	RedirectURI  string   `yaml:"redirect_uri,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
	DisablePKCE  bool     `yaml:"disable_pkce,omitempty"`
	// Ephemeral asks for a login that shares no cookies with other browser sessions
	Ephemeral bool `yaml:"ephemeral,omitempty"`
	// ClearCookies wipes the in-app browser profile before every login
	ClearCookies bool `yaml:"clear_cookies,omitempty"`
	// NativeUI false skips the system browser mechanisms and always shows the login URL in the terminal.  Left nil by
	// the defaults: mergo only replaces a nil pointer, so an explicit false in the file would otherwise be lost.
	NativeUI *bool `yaml:"native_ui,omitempty"`
}

// UseNativeUI reports whether the system presentation mechanisms may be used.  Unset means true.
func (a AuthConfig) UseNativeUI() bool {
	return a.NativeUI == nil || *a.NativeUI
}

// BrowserConfig contains the browser used for app windows and ephemeral sessions
type BrowserConfig struct {
	Path          string `yaml:"path,omitempty"`
	Args          string `yaml:"args,omitempty"`
	EphemeralArgs string `yaml:"ephemeral_args,omitempty"`
	ProfileDir    string `yaml:"profile_dir,omitempty"`
}

// PlatformConfig tunes capability detection
type PlatformConfig struct {
	// SystemVersion overrides the detected system version, eg "12.4"
	SystemVersion          string `yaml:"system_version,omitempty"`
	IntegratedMinVersion   string `yaml:"integrated_min_version,omitempty"`
	InAppBrowserMinVersion string `yaml:"in_app_browser_min_version,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
	Format   string `yaml:"format,omitempty"` // "json", "text"
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// Still start with the defaults if the file cannot be written
		_ = save(cfg, configPath)
	}

	applyDynamicDefaults(cfg)

	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings that make a login impossible
func (c *Config) Validate() error {
	if c.Auth.ClientID == "" {
		return errors.New("auth.client_id is not set")
	}
	if c.Auth.Issuer == "" && c.Auth.AuthorizeURL == "" {
		return errors.New("one of auth.issuer or auth.authorize_url must be set")
	}
	u, err := url.Parse(c.Auth.RedirectURI)
	if err != nil {
		return fmt.Errorf("auth.redirect_uri is invalid: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("auth.redirect_uri %q has no scheme", c.Auth.RedirectURI)
	}
	return nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
	cfg.Browser.ProfileDir = defaultProfileDir()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("WEBAUTH_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "webauth", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			RedirectURI: "http://127.0.0.1:19331/callback",
			Scopes:      []string{"openid"},
		},
		Browser: BrowserConfig{
			Path:          "chromium",
			EphemeralArgs: "--incognito",
		},
		Platform: PlatformConfig{
			IntegratedMinVersion:   "13.0",
			InAppBrowserMinVersion: "9.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// stateDir is where per-user state lives, following each OS's conventions
func stateDir(kind string) (string, error) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\webauth\<kind>
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "webauth", kind), nil
		}
		return filepath.Join(homedir, "AppData", "local", "webauth", kind), nil
	case "darwin":
		if kind == "logs" {
			return filepath.Join(homedir, "Library", "Logs", "webauth"), nil
		}
		return filepath.Join(homedir, "Library", "Application Support", "webauth", kind), nil
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			return filepath.Join(xdgState, "webauth", kind), nil
		}
		return filepath.Join(homedir, ".local", "state", "webauth", kind), nil
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	basePath, err := stateDir("logs")
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "webauth.log")
	}
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return filepath.Join(".", "webauth.log")
	}
	return filepath.Join(basePath, "webauth.log")
}

// defaultProfileDir is the browser profile shared by in-app browser windows.  It is created on first use.
func defaultProfileDir() string {
	basePath, err := stateDir("browser-profile")
	if err != nil {
		return filepath.Join(os.TempDir(), "webauth-browser-profile")
	}
	return basePath
}
