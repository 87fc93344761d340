package httpclient

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeCanceled, "canceled"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeClient, "client"},
		{ErrCodeServer, "server"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := ClassifyStatus(404, "404 Not Found", nil)
	if got := e.Error(); got != "httpclient: not_found (HTTP 404 Not Found): Not Found" {
		t.Errorf("unexpected message %q", got)
	}

	e2 := NewConnectionError(errors.New("connection refused"))
	if !strings.HasSuffix(e2.Error(), "connection: connection refused") {
		t.Errorf("unexpected message %q", e2.Error())
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
		retry   bool
	}{
		{200, true, 0, false},
		{204, true, 0, false},
		{304, false, ErrCodeServer, false},
		{400, false, ErrCodeClient, false},
		{401, false, ErrCodeAuth, false},
		{403, false, ErrCodeAuth, false},
		{404, false, ErrCodeNotFound, false},
		{429, false, ErrCodeRateLimit, true},
		{500, false, ErrCodeServer, true},
		{503, false, ErrCodeServer, true},
	}
	for _, tt := range tests {
		e := ClassifyStatus(tt.code, "", []byte("plain text"))
		if tt.wantNil {
			if e != nil {
				t.Errorf("ClassifyStatus(%d) = %v, want nil", tt.code, e)
			}
			continue
		}
		if e == nil {
			t.Fatalf("ClassifyStatus(%d) = nil", tt.code)
		}
		if e.Code != tt.errCode || e.Retryable != tt.retry {
			t.Errorf("ClassifyStatus(%d) = %s retry=%v, want %s retry=%v", tt.code, e.Code, e.Retryable, tt.errCode, tt.retry)
		}
		if e.StatusCode != tt.code || e.StatusText == "" {
			t.Errorf("ClassifyStatus(%d) lost status: %+v", tt.code, e)
		}
	}
}

func TestClassifyStatus_ReasonPhrase(t *testing.T) {
	e := ClassifyStatus(418, "418 Short And Stout", nil)
	if e.StatusText != "Short And Stout" {
		t.Errorf("expected server reason phrase, got %q", e.StatusText)
	}
}

func TestClassifyStatus_BodyMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"message":"ranch not found"}}`, "ranch not found"},
		{`{"message":"bad token"}`, "bad token"},
		{`not json`, "Bad Request"},
	}
	for _, tc := range tests {
		if got := ClassifyStatus(400, "", []byte(tc.body)).Message; got != tc.want {
			t.Errorf("body %s: got %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestHelpers(t *testing.T) {
	if !IsAuth(ClassifyStatus(401, "", nil)) || !IsNotFound(ClassifyStatus(404, "", nil)) {
		t.Error("expected auth and not-found helpers to match")
	}
	if IsRetryable(errors.New("plain")) || StatusCodeOf(errors.New("plain")) != 0 {
		t.Error("plain errors carry no classification")
	}
	if !IsCanceled(NewCanceledError(nil)) {
		t.Error("expected IsCanceled")
	}
}
