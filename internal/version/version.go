// Package version carries build metadata injected with
//
//	go build -ldflags "-X github.com/yungbote/stampcard-backend/internal/version.Version=..."
package version

import "strings"

var (
	Version   = "dev"
	BuildDate = ""
	GitCommit = ""
)

type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	Env       string `json:"env"`
}

// Resolve prefers non-empty overrides (typically from the environment) over the linked values.
func Resolve(env, versionOverride, buildDateOverride, gitCommitOverride string) Info {
	return Info{
		Version:   pick(versionOverride, Version),
		BuildDate: pick(buildDateOverride, BuildDate),
		GitCommit: pick(gitCommitOverride, GitCommit),
		Env:       pick(env, "development"),
	}
}

func pick(override, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return fallback
}
