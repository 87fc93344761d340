package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeConnectionFailed, true},
		{ErrCodeNotFound, false},
		{ErrCodeCanceled, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg", 0)
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, err.Retryable)
			}
		})
	}
}

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("ranch", "r-1")
	if err.Code != ErrCodeNotFound || err.HTTPStatus != http.StatusNotFound {
		t.Errorf("unexpected error %+v", err)
	}
	if err.Details["id"] != "r-1" {
		t.Errorf("expected id=r-1, got %v", err.Details["id"])
	}

	if _, ok := NotFound("ranch", "").Details["id"]; ok {
		t.Error("expected no id detail when id is empty")
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"Canceled", Canceled("fetch"), ErrCodeCanceled, false},
		{"Timeout", Timeout("fetch"), ErrCodeTimeout, true},
		{"ConnectionFailed", ConnectionFailed("ws"), ErrCodeConnectionFailed, true},
		{"ReconnectExhausted", ReconnectExhausted(5), ErrCodeReconnectExhausted, false},
		{"AuthFailed", AuthFailed(""), ErrCodeAuthFailed, false},
		{"MalformedMessage", MalformedMessage(nil), ErrCodeMalformedMessage, false},
		{"TransformFailed", TransformFailed(nil), ErrCodeTransformFailed, false},
		{"Validation", Validation("bad"), ErrCodeInvalidInput, false},
		{"MissingField", MissingField("url"), ErrCodeMissingField, false},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized, false},
		{"TokenExpired", TokenExpired(), ErrCodeTokenExpired, false},
		{"InvalidToken", InvalidToken(nil), ErrCodeInvalidToken, false},
		{"Storage", Storage("get", nil), ErrCodeStorage, true},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
			if tc.err.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	err := ReconnectExhausted(2)
	if !strings.HasPrefix(err.Error(), "RECONNECT_EXHAUSTED: ") {
		t.Errorf("unexpected format %q", err.Error())
	}

	cause := fmt.Errorf("unexpected EOF")
	withCause := MalformedMessage(cause)
	if !strings.Contains(withCause.Error(), "unexpected EOF") {
		t.Errorf("expected cause in message, got %q", withCause.Error())
	}
	if !stderrors.Is(withCause, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Canceled("refresh").WithDetail("key", "ranches")
	if err.Details["key"] != "ranches" || err.Details["operation"] != "refresh" {
		t.Errorf("unexpected details %v", err.Details)
	}

	bare := (&AppError{Code: ErrCodeInternal}).WithDetail("a", 1)
	if bare.Details["a"] != 1 {
		t.Error("WithDetail should allocate the map")
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("execute: %w", Canceled("fetch"))
	if !HasCode(wrapped, ErrCodeCanceled) {
		t.Error("expected wrapped CANCELED to match")
	}
	if HasCode(wrapped, ErrCodeTimeout) {
		t.Error("did not expect TIMEOUT to match")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeCanceled) {
		t.Error("plain errors carry no code")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := NotFound("ranch", "42").ToResponse()
	if resp.Error.Code != ErrCodeNotFound || resp.Error.Retryable {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Error.Details["resource"] != "ranch" {
		t.Error("expected resource=ranch in response details")
	}
}

func TestAsAppError(t *testing.T) {
	got, ok := AsAppError(fmt.Errorf("wrap: %w", Internal(nil)))
	if !ok || got.Code != ErrCodeInternal {
		t.Fatalf("expected wrapped INTERNAL_ERROR, got %v %v", got, ok)
	}
	if IsAppError(fmt.Errorf("not an app error")) {
		t.Error("expected IsAppError to be false for plain error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := NotFound("item", "1")
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected internal wrapping of plain error, got %+v", got)
	}
}
