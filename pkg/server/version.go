package server

// Version is the server version string.
// Override at build time with: go build -ldflags "-X github.com/dennis-mud/dennis/pkg/server.Version=0.3.0"
var Version = "0.3.0"

// Codebase is reported to MUD crawlers in the MSSP CODEBASE field.
const Codebase = "Dennis"

// VersionString returns the full version display string.
func VersionString() string {
	return Codebase + " " + Version
}
