// Package hostinfo describes the machine a game server runs on. The SDK
// attaches it to the one-time gsdkinfo report sent to the agent.
package hostinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Host is the subset of host facts reported to the agent. Fields that could
// not be read are left empty.
type Host struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os,omitempty"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	KernelArch      string `json:"kernelArch,omitempty"`
	CPUs            int    `json:"cpus,omitempty"`
	MemoryMB        uint64 `json:"memoryMb,omitempty"`
}

// Collect gathers host facts. The returned Host is always usable; err
// reports the first source that could not be read.
func Collect(ctx context.Context) (*Host, error) {
	h := &Host{
		OS:         runtime.GOOS,
		KernelArch: runtime.GOARCH,
		CPUs:       runtime.NumCPU(),
	}

	info, err := host.InfoWithContext(ctx)
	if err == nil {
		h.Hostname = info.Hostname
		if info.OS != "" {
			h.OS = info.OS
		}
		h.Platform = info.Platform
		h.PlatformVersion = info.PlatformVersion
		if info.KernelArch != "" {
			h.KernelArch = info.KernelArch
		}
	}

	vm, memErr := mem.VirtualMemoryWithContext(ctx)
	if memErr == nil {
		h.MemoryMB = vm.Total / (1024 * 1024)
	}

	if err == nil {
		err = memErr
	}
	return h, err
}
