package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Commit != Commit {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent(), "radialtree/"+Version; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
