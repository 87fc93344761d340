package validation

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/ranchkit/errors"
)

func TestValidatorCollectsErrors(t *testing.T) {
	err := New().
		Required("host", " ").
		Min("max_reconnect_attempts", -1, 0).
		NonNegative("heartbeat_interval", -time.Second).
		Positive("reconnect_interval", 0).
		OneOf("format", "xml", []string{"json", "console"}).
		Custom(false, "url", "must use ws or wss").
		Error()
	if err == nil {
		t.Fatal("expected error")
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT AppError, got %v", err)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	if len(fields) != 6 {
		t.Errorf("expected 6 field errors, got %d: %v", len(fields), fields)
	}
	for _, name := range []string{"host", "max_reconnect_attempts", "heartbeat_interval", "reconnect_interval", "format", "url"} {
		if !strings.Contains(appErr.Message, name+": ") {
			t.Errorf("expected %s in message %q", name, appErr.Message)
		}
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := New().
		Required("host", "localhost").
		Min("n", 0, 0).
		NonNegative("d", 0).
		Positive("p", time.Millisecond).
		OneOf("format", "", []string{"json"})
	if v.HasErrors() || v.Error() != nil {
		t.Errorf("expected no errors, got %v", v.Errors())
	}
}

type requestConfig struct {
	URL       string        `mapstructure:"url" validate:"required"`
	Method    string        `mapstructure:"method" validate:"http_method"`
	Retries   int           `mapstructure:"retries" validate:"gte=0"`
	CacheName string        `json:"cache_name" validate:"max=8"`
	Timeout   time.Duration `validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		cfg    requestConfig
		fields []string
	}{
		{"valid", requestConfig{URL: "/api/ranches", Method: "get"}, nil},
		{"missing url", requestConfig{Method: "GET"}, []string{"url: is required"}},
		{"bad method", requestConfig{URL: "/x", Method: "FETCH"}, []string{"method: must be one of"}},
		{"negative retries", requestConfig{URL: "/x", Retries: -1}, []string{"retries: must be greater"}},
		{"json tag name", requestConfig{URL: "/x", CacheName: "way-too-long"}, []string{"cache_name: must be at most 8"}},
		{"snake case fallback", requestConfig{URL: "/x", Timeout: -time.Second}, []string{"timeout: "}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.cfg)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, f := range tc.fields {
				if !strings.Contains(err.Error(), f) {
					t.Errorf("expected %q in %q", f, err.Error())
				}
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("HeartbeatInterval"); got != "heartbeat_interval" {
		t.Errorf("expected heartbeat_interval, got %q", got)
	}
}
