package netmon

import (
	"fmt"
	"os"
	"strings"
)

// SysfsProber reads link state from /sys/class/net/<iface>/operstate.
// This is the kernel's own view of the interface, so no sockets or
// privileges are needed.
type SysfsProber struct {
	path string
}

// NewSysfsProber creates a prober for the given interface name.
func NewSysfsProber(iface string) *SysfsProber {
	return &SysfsProber{path: "/sys/class/net/" + iface + "/operstate"}
}

// LinkUp reports whether the interface operstate is "up".
func (p *SysfsProber) LinkUp() (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, fmt.Errorf("read operstate: %w", err)
	}
	return strings.TrimSpace(string(data)) == "up", nil
}
