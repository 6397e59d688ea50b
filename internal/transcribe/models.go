package transcribe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Model is a local recognizer size with its approximate memory need.
type Model struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// DefaultModel balances accuracy and memory on consumer GPUs.
const DefaultModel = "medium"

var models = []Model{
	{Name: "tiny", Label: "tiny (~1GB)"},
	{Name: "base", Label: "base (~1GB)"},
	{Name: "small", Label: "small (~2GB)"},
	{Name: "medium", Label: "medium (~5GB)"},
	{Name: "large-v2", Label: "large-v2 (~8GB)"},
}

// Models lists the local recognizer sizes, smallest first.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// CleanModelName turns a display label such as "medium (~5GB)" into the
// model identifier.
func CleanModelName(label string) string {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return DefaultModel
	}
	return strings.ToLower(fields[0])
}

type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

const (
	ComputeFloat16 = "float16"
	ComputeInt8    = "int8"
)

func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DeviceAuto:
		return DeviceAuto, nil
	case DeviceCPU, DeviceCUDA:
		return d, nil
	default:
		return "", fmt.Errorf("unknown device %q (want auto, cpu or cuda)", s)
	}
}

// DefaultComputeType is half precision on GPU and int8 on CPU.
func DefaultComputeType(d Device) string {
	if d == DeviceCUDA {
		return ComputeFloat16
	}
	return ComputeInt8
}

// GPU describes the first CUDA device reported by nvidia-smi.
type GPU struct {
	Name    string
	VRAMGiB float64
}

func (g *GPU) String() string {
	return fmt.Sprintf("%s (%.1f GB VRAM)", g.Name, g.VRAMGiB)
}

type commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func nvidiaSMI(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}

// DetectGPU returns nil when no CUDA device is usable.
func DetectGPU(ctx context.Context) *GPU {
	return detectGPU(ctx, nvidiaSMI)
}

func detectGPU(ctx context.Context, run commandOutput) *GPU {
	out, err := run(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		return nil
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	idx := strings.LastIndex(line, ",")
	if idx < 0 {
		return nil
	}
	mib, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
	if err != nil {
		return nil
	}
	return &GPU{
		Name:    strings.TrimSpace(line[:idx]),
		VRAMGiB: mib * 1024 * 1024 / 1e9,
	}
}

// DeviceStatus is a one-line summary for the UI.
func DeviceStatus(gpu *GPU) string {
	if gpu == nil {
		return "Running on CPU (Slow)"
	}
	return "GPU Active: " + gpu.String()
}

// ResolveDevice picks CUDA for auto when a GPU is present.
func ResolveDevice(d Device, gpu *GPU) Device {
	if d == DeviceAuto {
		if gpu != nil {
			return DeviceCUDA
		}
		return DeviceCPU
	}
	return d
}
