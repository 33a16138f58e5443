// Package infra implements the host side of the engine: the adb device
// bridge, UI dump parsing, the event log and the settings file.
package infra

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessLister returns running processes by name.
type ProcessLister interface {
	Names() (map[int32]string, error)
}

type psutilLister struct{}

func (psutilLister) Names() (map[int32]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	names := make(map[int32]string, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		names[p.Pid] = name
	}
	return names, nil
}

// BridgeProbe reports whether the adb server is running on the host, so
// the monitor can tell a missing server from a missing device.
type BridgeProbe struct {
	lister  ProcessLister
	pattern string
}

// NewBridgeProbe creates a probe backed by gopsutil.
func NewBridgeProbe() *BridgeProbe {
	return NewBridgeProbeWithLister(psutilLister{})
}

// NewBridgeProbeWithLister creates a probe with a custom process source.
func NewBridgeProbeWithLister(lister ProcessLister) *BridgeProbe {
	return &BridgeProbe{lister: lister, pattern: "adb"}
}

// ServerPIDs returns PIDs of processes named like the adb server
// (case-insensitive).
func (p *BridgeProbe) ServerPIDs() ([]int, error) {
	names, err := p.lister.Names()
	if err != nil {
		return nil, err
	}

	var found []int
	for pid, name := range names {
		lower := strings.ToLower(strings.TrimSuffix(name, ".exe"))
		if lower == p.pattern || strings.HasPrefix(lower, p.pattern+" ") {
			found = append(found, int(pid))
		}
	}
	return found, nil
}

// ServerRunning reports whether at least one adb server process exists.
func (p *BridgeProbe) ServerRunning() bool {
	pids, err := p.ServerPIDs()
	return err == nil && len(pids) > 0
}
