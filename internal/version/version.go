package version

// These variables are populated at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// BuildTime is the time the binary was built
	BuildTime = "unknown"
)

// GetVersion returns the current version of the application
func GetVersion() string {
	return Version
}

// GetVersionInfo returns a formatted string with version information
func GetVersionInfo() string {
	return "webauth v" + Version + " (built " + BuildTime + ")"
}
