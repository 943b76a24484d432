package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		want    endpoint
		wantErr bool
	}{
		{raw: "http://collector:4318", want: endpoint{host: "collector:4318", insecure: true}},
		{raw: "https://otel.example.com/v1/traces", want: endpoint{host: "otel.example.com", path: "/v1/traces"}},
		{raw: "https://otel.example.com/", want: endpoint{host: "otel.example.com"}},
		{raw: "collector:4318", want: endpoint{host: "collector:4318", insecure: true}},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseEndpoint(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseEndpoint(%q) error = nil, want error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseEndpoint(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseEndpoint(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv(EndpointEnvVar, "")

	if Enabled() {
		t.Error("Enabled() = true without endpoint")
	}
	shutdown, err := Init(context.Background(), "provision", "test")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := HTTPClient().Get(srv.URL + "/data.lua")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
