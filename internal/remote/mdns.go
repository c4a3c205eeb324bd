// ABOUTME: mDNS advertisement of the remote control service
// ABOUTME: Publishes the websocket endpoint so controllers can find the deck
package remote

import (
	"context"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/internal/version"
	"github.com/hashicorp/mdns"
)

// AdvertiseConfig holds advertisement settings
type AdvertiseConfig struct {
	ServiceName string
	Port        int
	Logger      *log.Logger
}

// Advertise publishes the service until ctx is done
func Advertise(ctx context.Context, cfg AdvertiseConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		cfg.ServiceName,
		version.ServiceType,
		"",
		"",
		cfg.Port,
		ips,
		[]string{"path=/ws", "version=" + version.Version, "manufacturer=" + version.Manufacturer},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	logger.Info("advertising mDNS service", "name", cfg.ServiceName, "port", cfg.Port, "type", version.ServiceType)

	<-ctx.Done()
	if err := server.Shutdown(); err != nil {
		logger.Warn("mdns shutdown", "err", err)
	}
	return nil
}

// getLocalIPs returns non-loopback IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
