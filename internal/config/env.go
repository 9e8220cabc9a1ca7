package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, s string) error {
		*field(c) = s
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func setBoolPtr(field func(*Config) **bool) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*field(c) = &v
		return nil
	}
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "WEBAUTH_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil },
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_ISSUER",
		desc:  "Sets the OIDC issuer used to discover the authorization endpoint.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.Issuer }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_AUTHORIZE_URL",
		desc:  "Sets the authorization endpoint when no issuer is configured.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.AuthorizeURL }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_TOKEN_URL",
		desc:  "Sets the token endpoint when no issuer is configured.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.TokenURL }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_CLIENT_ID",
		desc:  "Sets the OAuth client id.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.ClientID }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_REDIRECT_URI",
		desc:  "Sets the redirect URI served on loopback.  Default: http://127.0.0.1:19331/callback",
		apply: setString(func(c *Config) *string { return &c.Auth.RedirectURI }),
	},
	{
		name: "WEBAUTH_CONFIG_AUTH_SCOPES",
		desc: "Sets the requested scopes as a comma separated list.  Default: openid",
		apply: func(c *Config, s string) error {
			var scopes []string
			for _, scope := range strings.Split(s, ",") {
				if scope = strings.TrimSpace(scope); scope != "" {
					scopes = append(scopes, scope)
				}
			}
			c.Auth.Scopes = scopes
			return nil
		},
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_DISABLE_PKCE",
		desc:  "Disables the PKCE code challenge.  Default: false",
		apply: setBool(func(c *Config) *bool { return &c.Auth.DisablePKCE }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_EPHEMERAL",
		desc:  "Requests a login that shares no cookies with other browser sessions.  Default: false",
		apply: setBool(func(c *Config) *bool { return &c.Auth.Ephemeral }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_CLEAR_COOKIES",
		desc:  "Clears the in-app browser profile before every login.  Default: false",
		apply: setBool(func(c *Config) *bool { return &c.Auth.ClearCookies }),
	},
	{
		name:  "WEBAUTH_CONFIG_AUTH_NATIVE_UI",
		desc:  "Uses the system browser mechanisms when available.  false always shows the login URL instead.  Default: true",
		apply: setBoolPtr(func(c *Config) **bool { return &c.Auth.NativeUI }),
	},
	{
		name:  "WEBAUTH_CONFIG_BROWSER_PATH",
		desc:  "Sets the Chromium style browser used for app windows.  Default: chromium",
		apply: setString(func(c *Config) *string { return &c.Browser.Path }),
	},
	{
		name:  "WEBAUTH_CONFIG_BROWSER_ARGS",
		desc:  "Sets extra browser arguments.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Browser.Args }),
	},
	{
		name:  "WEBAUTH_CONFIG_BROWSER_EPHEMERAL_ARGS",
		desc:  "Sets the browser arguments for ephemeral sessions.  Default: --incognito",
		apply: setString(func(c *Config) *string { return &c.Browser.EphemeralArgs }),
	},
	{
		name:  "WEBAUTH_CONFIG_BROWSER_PROFILE_DIR",
		desc:  "Sets the browser profile dir used by app windows.  Default: OS-specific",
		apply: setString(func(c *Config) *string { return &c.Browser.ProfileDir }),
	},
	{
		name:  "WEBAUTH_CONFIG_PLATFORM_SYSTEM_VERSION",
		desc:  "Overrides the detected system version.  Default: detected",
		apply: setString(func(c *Config) *string { return &c.Platform.SystemVersion }),
	},
	{
		name:  "WEBAUTH_CONFIG_PLATFORM_INTEGRATED_MIN_VERSION",
		desc:  "Sets the minimum system version for the integrated session.  Default: 13.0",
		apply: setString(func(c *Config) *string { return &c.Platform.IntegratedMinVersion }),
	},
	{
		name:  "WEBAUTH_CONFIG_PLATFORM_IN_APP_BROWSER_MIN_VERSION",
		desc:  "Sets the minimum system version for the in-app browser.  Default: 9.0",
		apply: setString(func(c *Config) *string { return &c.Platform.InAppBrowserMinVersion }),
	},
	{
		name:  "WEBAUTH_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: setString(func(c *Config) *string { return &c.Logging.Level }),
	},
	{
		name:  "WEBAUTH_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: setString(func(c *Config) *string { return &c.Logging.FilePath }),
	},
	{
		name:  "WEBAUTH_CONFIG_LOGGING_FORMAT",
		desc:  "Sets the log format.  One of: json, text.  Default: json",
		apply: setString(func(c *Config) *string { return &c.Logging.Format }),
	},
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

// EnvVarHelp lists the supported environment variables for the --help output
func EnvVarHelp() string {
	var sb strings.Builder
	for _, envVar := range supportedEnvVars {
		fmt.Fprintf(&sb, "  %s\n      %s\n", envVar.name, envVar.desc)
	}
	return sb.String()
}
