// Package agent implements the appearance collection subsystem for CalqShell.
// It uses gopsutil for the host name and platform.
package agent

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/prefs"
)

// Snapshot holds a single collection cycle's data.
type Snapshot struct {
	Hostname    string
	Platform    string
	Scheme      prefs.Scheme
	CollectedAt time.Time
}

// Collector reads the device's current color scheme. Host details are
// looked up once.
type Collector struct {
	device appearance.Source

	once     sync.Once
	hostname string
	platform string
}

// NewCollector reads the scheme from device.
func NewCollector(device appearance.Source) *Collector {
	return &Collector{device: device}
}

// Collect captures the current scheme.
func (c *Collector) Collect() Snapshot {
	c.once.Do(c.lookupHost)
	return Snapshot{
		Hostname:    c.hostname,
		Platform:    c.platform,
		Scheme:      c.device.Current(),
		CollectedAt: time.Now(),
	}
}

func (c *Collector) lookupHost() {
	info, err := host.Info()
	if err == nil {
		c.hostname = info.Hostname
		c.platform = info.OS + "/" + info.Platform
		return
	}
	c.hostname, _ = os.Hostname()
	c.platform = runtime.GOOS
}
