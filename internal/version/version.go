package version

import "strings"

// Version values are set at build time using -ldflags.
var Version = "dev"
var Built = ""
var GitCommit = ""

type VersionInfo struct {
	Version   string `yaml:"version"`
	Built     string `yaml:"built,omitempty"`
	GitCommit string `yaml:"git_commit,omitempty"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Built:     Built,
		GitCommit: GitCommit,
	}
}

// String renders the version line printed by `shotrelay version`.
func (info VersionInfo) String() string {
	if info.Version == "" || info.Version == "dev" {
		return "shotrelay dev"
	}
	builder := strings.Builder{}
	builder.WriteString("shotrelay version ")
	builder.WriteString(info.Version)
	if info.GitCommit != "" {
		builder.WriteString(" (")
		builder.WriteString(info.GitCommit)
		builder.WriteString(")")
	}
	if info.Built != "" {
		builder.WriteString(" built ")
		builder.WriteString(info.Built)
	}
	return builder.String()
}
