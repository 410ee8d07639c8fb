package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestResolve_Ldflags(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abc1234", "2026-01-15T10:30:00Z"

	info := resolve(&debug.BuildInfo{GoVersion: "go1.26.0"}, true)
	if info.Version != "1.2.0" || info.GitCommit != "abc1234" || info.GoVersion != "go1.26.0" {
		t.Errorf("info = %+v", info)
	}
	if !info.IsRelease() {
		t.Error("1.2.0 should be a release")
	}
	if info.String() != "1.2.0-abc1234" {
		t.Errorf("String() = %q", info.String())
	}
}

func TestResolve_BuildInfo(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := resolve(&debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-02-01T00:00:00Z"},
		},
	}, true)
	if info.Version != "0.3.1" {
		t.Errorf("version = %q", info.Version)
	}
	if info.GitCommit != "0123456" {
		t.Errorf("commit = %q, want the short form", info.GitCommit)
	}
	if !info.Dirty || info.IsRelease() {
		t.Errorf("dirty build reported as release: %+v", info)
	}
	if info.String() != "0.3.1-0123456-dirty" {
		t.Errorf("String() = %q", info.String())
	}
	if info.BuildTime != "2026-02-01T00:00:00Z" {
		t.Errorf("build time = %q", info.BuildTime)
	}
}

func TestResolve_Devel(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := resolve(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)
	if info.Version != "dev" || info.IsRelease() {
		t.Errorf("info = %+v", info)
	}
	if got := resolve(nil, false); got.Version != "dev" {
		t.Errorf("without build info = %+v", got)
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent(); !strings.HasPrefix(ua, Product+"/") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
