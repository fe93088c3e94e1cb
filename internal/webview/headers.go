package webview

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/vesaa/calqshell/internal/bridge"
)

// Identity is how the shell presents itself to the remote site.
type Identity struct {
	Source   string `json:"source"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// DetectPlatform describes the host OS, e.g. "linux/ubuntu".
func DetectPlatform() string {
	info, err := host.Info()
	if err != nil || info.Platform == "" {
		return runtime.GOOS
	}
	return info.OS + "/" + info.Platform
}

// UserAgent is the agent string sent with every document request.
func (id Identity) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s WebView)", id.Source, id.Version, id.Platform)
}

// Headers returns the identification headers that let the remote site
// detect the native wrapper.
func (id Identity) Headers() map[string]string {
	return map[string]string{
		"X-App-Source":   id.Source,
		"X-App-Platform": id.Platform,
		"X-App-Version":  id.Version,
		"User-Agent":     id.UserAgent(),
		"X-Mobile-App":   "true",
		"X-App-Name":     id.Name,
	}
}

// ScriptSource yields the current injection payload of one preference.
type ScriptSource interface {
	Script() string
}

// Preload returns a load hook that injects every source's current script
// into the freshly loaded handle only.
func Preload(reg *bridge.Registry, sources ...ScriptSource) func(bridge.Handle) {
	return func(h bridge.Handle) {
		for _, s := range sources {
			_ = reg.InjectInto(h, s.Script())
		}
	}
}
