package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name      string
		entry     *zeroconf.ServiceEntry
		wantNil   bool
		wantIP    string
		wantPort  int
		wantModel string
	}{
		{
			name: "fritz box by instance name",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "FRITZ!Box 3490"},
				HostName:      "fritz.box.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.178.1")},
			},
			wantIP:    "192.168.178.1",
			wantPort:  80,
			wantModel: "3490",
		},
		{
			name: "fritz box by hostname only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Web interface"},
				HostName:      "fritz.box.local.",
				AddrIPv4:      []net.IP{net.ParseIP("192.168.178.1")},
			},
			wantIP:   "192.168.178.1",
			wantPort: DefaultPort,
		},
		{
			name: "ipv6 fallback",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "FRITZ!Box 7590"},
				Port:          8080,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:    "fe80::1",
			wantPort:  8080,
			wantModel: "7590",
		},
		{
			name: "other http service",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Living Room Printer"},
				HostName:      "printer.local.",
				AddrIPv4:      []net.IP{net.ParseIP("192.168.178.30")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "FRITZ!Box 3490"},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if r != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", r)
				}
				return
			}
			if r == nil {
				t.Fatal("parseServiceEntry() = nil")
			}
			if r.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", r.IP, tt.wantIP)
			}
			if r.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", r.Port, tt.wantPort)
			}
			if r.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", r.Model, tt.wantModel)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	r := parseServiceEntry(&zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "FRITZ!Box 3490"},
		AddrIPv4:      []net.IP{net.ParseIP("192.168.178.1")},
		Text:          []string{"path=/", "flag", "a=b=c"},
	})

	want := map[string]string{"path": "/", "flag": "", "a": "b=c"}
	for k, v := range want {
		if got, ok := r.Metadata[k]; !ok || got != v {
			t.Errorf("Metadata[%q] = %q, want %q", k, got, v)
		}
	}
}

func TestRouter_Address(t *testing.T) {
	tests := []struct {
		router Router
		want   string
	}{
		{Router{IP: "192.168.178.1", Port: 80}, "192.168.178.1"},
		{Router{IP: "192.168.178.1"}, "192.168.178.1"},
		{Router{IP: "192.168.178.1", Port: 8080}, "192.168.178.1:8080"},
		{Router{IP: "fe80::1", Port: 8080}, "[fe80::1]:8080"},
	}
	for _, tt := range tests {
		if got := tt.router.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	s := NewScanner()
	if s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}
