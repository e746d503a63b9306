package builtin

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deckworks/deck-core/internal/plugin"
)

// ShowIP reports the IPv4 address of an interface, or of every up
// interface when none is named.
type ShowIP struct{}

func (ShowIP) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "network.show_ip",
		Name:        "Show IP",
		Description: "Show the IPv4 address of a network interface",
		Icon:        "globe",
		Category:    "network",
		Schema: plugin.Schema{Properties: map[string]plugin.Property{
			"interface": {
				Type:        plugin.TypeString,
				Description: "Interface name, empty for all",
				Default:     "",
			},
		}},
	}
}

func (ShowIP) Execute(_ context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	want := stringValue(cfg, "interface")

	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	addresses := make(map[string]any)
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if want != "" && iface.Name != want {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			addresses[iface.Name] = ipNet.IP.String()
		}
	}

	if len(addresses) == 0 {
		if want != "" {
			return nil, fmt.Errorf("interface %s has no IPv4 address", want)
		}
		return nil, fmt.Errorf("no active interface with an IPv4 address")
	}

	parts := make([]string, 0, len(addresses))
	for name, ip := range addresses {
		parts = append(parts, fmt.Sprintf("%s %s", name, ip))
	}
	return &plugin.Result{
		Message: strings.Join(parts, ", "),
		Data:    addresses,
	}, nil
}

// NetworkSpeed samples interface byte counters over a short window and
// reports throughput.
type NetworkSpeed struct{}

func (NetworkSpeed) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "network.speed",
		Name:        "Network Speed",
		Description: "Measure current network throughput",
		Icon:        "gauge",
		Category:    "network",
		Schema: plugin.Schema{Properties: map[string]plugin.Property{
			"interface": {
				Type:        plugin.TypeString,
				Description: "Interface to sample",
				Default:     "eth0",
			},
			"sample_seconds": {
				Type:        plugin.TypeInteger,
				Description: "Sampling window length",
				Default:     1,
			},
		}},
	}
}

func (NetworkSpeed) Execute(ctx context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	iface := stringValue(cfg, "interface")
	window := intValue(cfg, "sample_seconds", 1)
	if window < 1 {
		window = 1
	}

	rx1, tx1, err := readByteCounters(iface)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Duration(window) * time.Second):
	}

	rx2, tx2, err := readByteCounters(iface)
	if err != nil {
		return nil, err
	}

	seconds := float64(window)
	rxMbps := float64(rx2-rx1) * 8 / seconds / 1e6
	txMbps := float64(tx2-tx1) * 8 / seconds / 1e6

	return &plugin.Result{
		Message: fmt.Sprintf("%s: down %.1f Mbps, up %.1f Mbps", iface, rxMbps, txMbps),
		Data: map[string]any{
			"interface": iface,
			"rx_mbps":   rxMbps,
			"tx_mbps":   txMbps,
		},
	}, nil
}

func readByteCounters(iface string) (rx, tx uint64, err error) {
	base := filepath.Join("/sys/class/net", iface, "statistics")
	rx, err = readCounter(filepath.Join(base, "rx_bytes"))
	if err != nil {
		return 0, 0, fmt.Errorf("interface %s: %w", iface, err)
	}
	tx, err = readCounter(filepath.Join(base, "tx_bytes"))
	if err != nil {
		return 0, 0, fmt.Errorf("interface %s: %w", iface, err)
	}
	return rx, tx, nil
}

func readCounter(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
}

// ToggleWiFi flips the wireless radio through NetworkManager.
type ToggleWiFi struct{}

func (ToggleWiFi) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "network.toggle_wifi",
		Name:        "Toggle WiFi",
		Description: "Turn the wireless radio on or off",
		Icon:        "wifi",
		Category:    "network",
		Schema:      plugin.Schema{Properties: map[string]plugin.Property{}},
	}
}

func (ToggleWiFi) Execute(ctx context.Context, _ plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	state, err := runCommand(ctx, "nmcli", "radio", "wifi")
	if err != nil {
		return nil, err
	}

	next := "on"
	if strings.EqualFold(state, "enabled") {
		next = "off"
	}
	if _, err := runCommand(ctx, "nmcli", "radio", "wifi", next); err != nil {
		return nil, err
	}
	return &plugin.Result{
		Message: "wifi " + next,
		Data:    map[string]any{"state": next},
	}, nil
}

// Ping checks reachability of a host.
type Ping struct{}

func (Ping) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "network.ping",
		Name:        "Ping",
		Description: "Ping a host and report round-trip time",
		Icon:        "pulse",
		Category:    "network",
		Schema: plugin.Schema{
			Properties: map[string]plugin.Property{
				"host": {
					Type:        plugin.TypeString,
					Description: "Hostname or IP address to ping",
				},
				"count": {
					Type:        plugin.TypeInteger,
					Description: "Number of echo requests",
					Default:     3,
				},
			},
			Required: []string{"host"},
		},
	}
}

func (Ping) Execute(ctx context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	host := stringValue(cfg, "host")
	count := intValue(cfg, "count", 3)
	if count < 1 {
		count = 1
	}

	out, err := runCommand(ctx, "ping", "-c", strconv.Itoa(count), "-W", "2", host)
	if err != nil {
		return nil, fmt.Errorf("ping %s: %w", host, err)
	}

	// The rtt summary is the last line: rtt min/avg/max/mdev = a/b/c/d ms
	message := host + " reachable"
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "min/avg/max") {
			if _, stats, found := strings.Cut(line, "= "); found {
				fields := strings.Split(strings.TrimSuffix(stats, " ms"), "/")
				if len(fields) >= 2 {
					message = fmt.Sprintf("%s avg %s ms", host, fields[1])
				}
			}
		}
	}

	return &plugin.Result{
		Message: message,
		Data:    map[string]any{"host": host, "output": out},
	}, nil
}
