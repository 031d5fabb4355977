// Package misc keeps build time information.
package misc

// set by linker: -X repub/misc.version=... -X repub/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns application name, used for naming temporary
// directories, logs and reports.
func GetAppName() string {
	return "repub"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
