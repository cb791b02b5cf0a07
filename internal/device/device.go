// Package device selects the compute device used by the inference engine.
// Preference order is fixed: Metal on Apple hardware, then CUDA when an
// NVIDIA runtime is visible, then CPU.
package device

import (
	"os"
	"os/exec"
	"runtime"
)

// Device identifies a compute backend.
type Device string

const (
	Metal Device = "metal"
	CUDA  Device = "cuda"
	CPU   Device = "cpu"
)

func (d Device) String() string { return string(d) }

// Detect picks the best available device for this host.
func Detect() Device {
	return detect(runtime.GOOS, exec.LookPath, os.Stat)
}

// detect is the testable core of Detect.
func detect(goos string, lookPath func(string) (string, error), stat func(string) (os.FileInfo, error)) Device {
	if goos == "darwin" {
		return Metal
	}
	if _, err := stat("/dev/nvidia0"); err == nil {
		return CUDA
	}
	if _, err := lookPath("nvidia-smi"); err == nil {
		return CUDA
	}
	return CPU
}
