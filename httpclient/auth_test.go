package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthApply(t *testing.T) {
	tests := []struct {
		name string
		auth *AuthConfig
		want string
	}{
		{"nil", nil, ""},
		{"bearer", BearerAuth("tok"), "Bearer tok"},
		{"bearer empty", BearerAuth(""), ""},
		{"token func", BearerTokenFunc(func(context.Context) (string, error) { return "live", nil }), "Bearer live"},
		{"token func nil", &AuthConfig{Type: AuthBearerFunc}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			if err := tc.auth.apply(context.Background(), req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := req.Header.Get("Authorization"); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	_ = BasicAuth("user", "pass").apply(context.Background(), req)
	u, p, ok := req.BasicAuth()
	if !ok || u != "user" || p != "pass" {
		t.Errorf("basic auth not set correctly: user=%q pass=%q ok=%v", u, p, ok)
	}
}

func TestTokenFuncErrorFailsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	boom := errors.New("session store unavailable")
	a, _ := New(Config{BaseURL: srv.URL, Auth: BearerTokenFunc(func(context.Context) (string, error) {
		return "", boom
	})})
	_, err := a.Do(context.Background(), Request{Path: "/"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestRequestAuthOverridesAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer override" {
			t.Errorf("expected override token, got %q", got)
		}
	}))
	defer srv.Close()

	a, _ := New(Config{BaseURL: srv.URL, Auth: BearerAuth("default")})
	if _, err := a.Do(context.Background(), Request{Path: "/", Auth: BearerAuth("override")}); err != nil {
		t.Fatal(err)
	}
}
