// Package constants contains file names and environment variables shared by browserslist-lint.
package constants

const (
	// LogFilename is the default log file name.
	LogFilename = "browserslist-lint.log"

	// SettingsFilename is the tool settings file inside the XDG config directory.
	SettingsFilename = "config.yml"

	// RCFilename is the dotfile Browserslist reads queries from.
	RCFilename = ".browserslistrc"

	// PlainConfigFilename is the undotted alternative to RCFilename.
	PlainConfigFilename = "browserslist"

	// PackageFilename may carry queries under its "browserslist" key.
	PackageFilename = "package.json"
)

// Environment variables consulted by the CLI when the matching flag is absent.
const (
	EnvQueries = "BROWSERSLIST"
	EnvConfig  = "BROWSERSLIST_CONFIG"
	EnvEnv     = "BROWSERSLIST_ENV"
	EnvStats   = "BROWSERSLIST_STATS"
)
