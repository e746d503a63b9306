package builtin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/deckworks/deck-core/internal/plugin"
)

// Shutdown powers the host off through systemd.
type Shutdown struct{}

func (Shutdown) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.shutdown",
		Name:        "Shutdown",
		Description: "Power the system off",
		Icon:        "power",
		Category:    "system",
		Schema: plugin.Schema{Properties: map[string]plugin.Property{
			"delay_seconds": {
				Type:        plugin.TypeInteger,
				Description: "Seconds to wait before powering off",
				Default:     0,
			},
		}},
	}
}

func (Shutdown) Execute(ctx context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	delay := intValue(cfg, "delay_seconds", 0)
	args := []string{"poweroff"}
	if delay > 0 {
		args = []string{"poweroff", "--when=+" + strconv.Itoa(delay)}
	}
	if _, err := runCommand(ctx, "systemctl", args...); err != nil {
		return nil, err
	}
	return &plugin.Result{Message: "shutting down"}, nil
}

// Reboot restarts the host through systemd.
type Reboot struct{}

func (Reboot) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.reboot",
		Name:        "Reboot",
		Description: "Restart the system",
		Icon:        "restart",
		Category:    "system",
		Schema:      plugin.Schema{Properties: map[string]plugin.Property{}},
	}
}

func (Reboot) Execute(ctx context.Context, _ plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	if _, err := runCommand(ctx, "systemctl", "reboot"); err != nil {
		return nil, err
	}
	return &plugin.Result{Message: "rebooting"}, nil
}

// CPUInfo reports load averages and, when available, the CPU temperature.
type CPUInfo struct{}

func (CPUInfo) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.cpu_info",
		Name:        "CPU Info",
		Description: "Show load averages and CPU temperature",
		Icon:        "cpu",
		Category:    "system",
		Schema:      plugin.Schema{Properties: map[string]plugin.Property{}},
	}
}

func (CPUInfo) Execute(_ context.Context, _ plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	raw, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return nil, fmt.Errorf("reading loadavg: %w", err)
	}
	fields := strings.Fields(string(raw))
	if len(fields) < 3 {
		return nil, fmt.Errorf("unexpected loadavg format: %q", string(raw))
	}

	data := map[string]any{
		"load_1":  fields[0],
		"load_5":  fields[1],
		"load_15": fields[2],
	}
	msg := fmt.Sprintf("load %s %s %s", fields[0], fields[1], fields[2])

	if temp, ok := cpuTemperature(); ok {
		data["temp_c"] = temp
		msg = fmt.Sprintf("%s, %.1fC", msg, temp)
	}

	return &plugin.Result{Message: msg, Data: data}, nil
}

// cpuTemperature reads the first thermal zone in millidegrees.
func cpuTemperature() (float64, bool) {
	raw, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0, false
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, false
	}
	return float64(milli) / 1000.0, true
}

// MemoryInfo reports total, available and used memory from /proc/meminfo.
type MemoryInfo struct{}

func (MemoryInfo) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.memory_info",
		Name:        "Memory Info",
		Description: "Show memory usage",
		Icon:        "memory",
		Category:    "system",
		Schema:      plugin.Schema{Properties: map[string]plugin.Property{}},
	}
}

func (MemoryInfo) Execute(_ context.Context, _ plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return nil, fmt.Errorf("reading meminfo: %w", err)
	}
	defer f.Close()

	values := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		if key != "MemTotal" && key != "MemAvailable" {
			continue
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		values[key] = kb
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning meminfo: %w", err)
	}

	total, avail := values["MemTotal"], values["MemAvailable"]
	if total == 0 {
		return nil, fmt.Errorf("meminfo missing MemTotal")
	}
	used := total - avail
	percent := float64(used) / float64(total) * 100

	return &plugin.Result{
		Message: fmt.Sprintf("%.0f%% used (%.1f/%.1f GB)",
			percent, float64(used)/1048576, float64(total)/1048576),
		Data: map[string]any{
			"total_kb":     total,
			"available_kb": avail,
			"used_kb":      used,
			"used_percent": percent,
		},
	}, nil
}

// ProcessControl starts, stops or restarts a systemd service.
type ProcessControl struct{}

func (ProcessControl) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.process_control",
		Name:        "Process Control",
		Description: "Start, stop or restart a systemd service",
		Icon:        "gear",
		Category:    "system",
		Schema: plugin.Schema{
			Properties: map[string]plugin.Property{
				"action": {
					Type:        plugin.TypeString,
					Description: "Operation to perform",
					Enum:        []any{"start", "stop", "restart"},
				},
				"service": {
					Type:        plugin.TypeString,
					Description: "systemd unit name",
				},
			},
			Required: []string{"action", "service"},
		},
	}
}

func (ProcessControl) Execute(ctx context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	action := stringValue(cfg, "action")
	service := stringValue(cfg, "service")
	if _, err := runCommand(ctx, "systemctl", action, service); err != nil {
		return nil, err
	}
	return &plugin.Result{Message: fmt.Sprintf("%s %s", action, service)}, nil
}

// DiskSpace reports usage of the filesystem holding a mount point.
type DiskSpace struct{}

func (DiskSpace) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "system.disk_space",
		Name:        "Disk Space",
		Description: "Show free space for a mount point",
		Icon:        "disk",
		Category:    "system",
		Schema: plugin.Schema{Properties: map[string]plugin.Property{
			"mount_point": {
				Type:        plugin.TypeString,
				Description: "Filesystem path to inspect",
				Default:     "/",
			},
		}},
	}
}

func (DiskSpace) Execute(_ context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	mount := stringValue(cfg, "mount_point")
	if mount == "" {
		mount = "/"
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(mount, &stat); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", mount, err)
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free
	percent := 0.0
	if total > 0 {
		percent = float64(used) / float64(total) * 100
	}

	return &plugin.Result{
		Message: fmt.Sprintf("%s: %.0f%% used, %.1f GB free",
			mount, percent, float64(free)/1073741824),
		Data: map[string]any{
			"mount_point":  mount,
			"total_bytes":  total,
			"free_bytes":   free,
			"used_bytes":   used,
			"used_percent": percent,
		},
	}, nil
}
