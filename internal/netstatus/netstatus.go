// Package netstatus reports whether the host is currently connected over
// Wi-Fi.
package netstatus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSysfsRoot is where Linux exposes network interfaces
const DefaultSysfsRoot = "/sys/class/net"

// Provider reports whether current connectivity is Wi-Fi
type Provider interface {
	IsWiFi() bool
}

// Static always answers the same value
type Static bool

// IsWiFi implements Provider
func (s Static) IsWiFi() bool { return bool(s) }

// Sysfs detects an active wireless interface from sysfs: an interface is
// wireless when it has a "wireless" or "phy80211" entry, and active when
// its operstate is "up".
type Sysfs struct {
	Root string
}

// IsWiFi implements Provider. Unreadable sysfs means "not Wi-Fi".
func (s Sysfs) IsWiFi() bool {
	root := s.Root
	if root == "" {
		root = DefaultSysfsRoot
	}

	ifaces, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		dir := filepath.Join(root, iface.Name())
		if !exists(filepath.Join(dir, "wireless")) && !exists(filepath.Join(dir, "phy80211")) {
			continue
		}
		state, err := os.ReadFile(filepath.Join(dir, "operstate"))
		if err == nil && strings.TrimSpace(string(state)) == "up" {
			return true
		}
	}
	return false
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Mode selects how connectivity is determined
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeWiFi    Mode = "wifi"
	ModeMetered Mode = "metered"
)

// New returns the provider for a configured mode
func New(mode string) (Provider, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", ModeAuto:
		return Sysfs{}, nil
	case ModeWiFi:
		return Static(true), nil
	case ModeMetered:
		return Static(false), nil
	}
	return nil, fmt.Errorf("unknown network mode %q (want auto, wifi or metered)", mode)
}
