package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType is the service routers announce their web interface under
	ServiceType = "_http._tcp"

	ServiceDomain = "local."

	DefaultScanTimeout = 5 * time.Second

	DefaultPort = 80
)

var (
	fritzPattern = regexp.MustCompile(`(?i)fritz`)
	modelPattern = regexp.MustCompile(`(?i)fritz!?\s*box\s+(\d{4})`)
)

// Scanner browses mDNS for routers
type Scanner struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewScanner creates a scanner with the default timeout
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Logger:  zap.NewNop(),
	}
}

// Scan browses for the scanner's timeout and returns the routers seen,
// one per IP address.
func (s *Scanner) Scan(ctx context.Context) ([]*Router, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		routers []*Router
		seen    = make(map[string]bool)
	)

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			r := parseServiceEntry(entry)
			if r == nil {
				s.logger().Debug("ignoring mDNS entry", zap.String("instance", entry.Instance), zap.String("host", entry.HostName))
				continue
			}
			mu.Lock()
			if !seen[r.IP] {
				seen[r.IP] = true
				routers = append(routers, r)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	out := make([]*Router, len(routers))
	copy(out, routers)
	return out, nil
}

func (s *Scanner) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// parseServiceEntry converts an mDNS entry to a Router, or nil when the
// entry is not a FRITZ!Box or carries no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Router {
	if entry == nil {
		return nil
	}
	if !fritzPattern.MatchString(entry.Instance) && !fritzPattern.MatchString(entry.HostName) {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	var model string
	if m := modelPattern.FindStringSubmatch(entry.Instance); m != nil {
		model = m[1]
	}

	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Router{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		Model:        model,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
