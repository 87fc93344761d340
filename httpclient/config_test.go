package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Headers: map[string]string{"Accept": "text/plain", "X-Ranch": "north"}}
	cfg.ApplyDefaults()
	if cfg.Name != "http" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected default content type, got %v", cfg.Headers)
	}
	if cfg.Headers["Accept"] != "text/plain" || cfg.Headers["X-Ranch"] != "north" {
		t.Errorf("configured headers should win, got %v", cfg.Headers)
	}
	if DefaultHeaders["Accept"] != "application/json" {
		t.Error("ApplyDefaults must not mutate DefaultHeaders")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"absolute base", Config{BaseURL: "http://localhost:8080/api"}, false},
		{"relative base", Config{BaseURL: "/api"}, true},
		{"negative timeout", Config{Timeout: -time.Second}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
