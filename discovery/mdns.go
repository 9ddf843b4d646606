// Package discovery finds Nostr relays announced over mDNS on the local network.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"

	"bitnostr/models"
)

const (
	// DefaultService is the mDNS service name without domain suffix.
	DefaultService = "_nostr-relay._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
	// DefaultRefreshInterval is the background relay discovery interval.
	DefaultRefreshInterval = 30 * time.Second
	// DefaultScanTimeout bounds each discovery scan.
	DefaultScanTimeout = 3 * time.Second
)

type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Config controls relay scanner behavior.
type Config struct {
	Service         string
	Domain          string
	RefreshInterval time.Duration
	ScanTimeout     time.Duration
	Logger          zerolog.Logger

	browseFn browseFunc
}

func (c Config) withDefaults() Config {
	out := c
	if out.Service == "" {
		out.Service = DefaultService
	}
	if out.Domain == "" {
		out.Domain = DefaultDomain
	}
	if out.RefreshInterval <= 0 {
		out.RefreshInterval = DefaultRefreshInterval
	}
	if out.ScanTimeout <= 0 {
		out.ScanTimeout = DefaultScanTimeout
	}
	return out
}

// parseEntry turns an announcement into a relay URL. TXT keys: path, tls=1, name.
func parseEntry(entry *zeroconf.ServiceEntry) (models.DiscoveredRelay, bool) {
	if entry == nil || entry.Port <= 0 {
		return models.DiscoveredRelay{}, false
	}
	txt := txtToMap(entry.Text)

	host := pickAddress(entry)
	if host == "" {
		return models.DiscoveredRelay{}, false
	}

	scheme := "ws"
	if tls, err := strconv.ParseBool(txt["tls"]); err == nil && tls {
		scheme = "wss"
	}

	path := txt["path"]
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	instance := strings.TrimSpace(entry.Instance)
	name := txt["name"]
	if name == "" {
		name = instance
	}

	return models.DiscoveredRelay{
		InstanceName: instance,
		URL:          fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(host, strconv.Itoa(entry.Port)), path),
		Host:         host,
		Port:         entry.Port,
		Name:         name,
	}, true
}

// pickAddress prefers the lowest IPv4 address, then IPv6, then the announced host name.
func pickAddress(entry *zeroconf.ServiceEntry) string {
	for _, family := range [][]net.IP{entry.AddrIPv4, entry.AddrIPv6} {
		addresses := make([]string, 0, len(family))
		for _, ip := range family {
			if ip == nil || ip.IsUnspecified() {
				continue
			}
			addresses = append(addresses, ip.String())
		}
		if len(addresses) > 0 {
			sort.Strings(addresses)
			return addresses[0]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(entry.HostName), ".")
}

func txtToMap(text []string) map[string]string {
	out := make(map[string]string, len(text))
	for _, entry := range text {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(parts[1])
	}
	return out
}
