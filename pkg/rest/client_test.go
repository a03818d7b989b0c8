package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-rest-client/pkg/auth"
)

// captured records what the test server saw for one request.
type captured struct {
	method      string
	path        string
	rawQuery    string
	body        string
	contentType string
	auth        string
	userAgent   string
}

func newCaptureServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured) {
	t.Helper()
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got = captured{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			body:        string(raw),
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			userAgent:   r.Header.Get("User-Agent"),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	return srv, &got
}

func newTestClient(endpoint string) *Client {
	return New("CUST1", "a2V5", WithEndpoint(endpoint), WithTimeout(2*time.Second))
}

func TestGetFieldsBecomeQueryString(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, `{"status":"ok"}`)
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Get(context.Background(), "/v1/status", Fields{F("a", "1"), F("b", "2")})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.method != http.MethodGet || got.path != "/v1/status" {
		t.Fatalf("unexpected request %s %s", got.method, got.path)
	}
	if got.rawQuery != "a=1&b=2" {
		t.Fatalf("query %q, want %q", got.rawQuery, "a=1&b=2")
	}
	if got.body != "" {
		t.Fatalf("GET carried a body: %q", got.body)
	}
	if !resp.Ok() {
		t.Fatalf("status %d, want 2xx", resp.StatusCode)
	}
	var decoded struct {
		Status string `json:"status"`
	}
	if err := resp.JSON(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Status != "ok" {
		t.Fatalf("decoded status %q", decoded.Status)
	}
}

func TestPostJSONFieldsBecomeBody(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()

	_, err := newTestClient(srv.URL).Post(context.Background(), "/v1/messaging",
		Fields{F("phone_number", "15551234567"), F("message", "hello")},
		WithContentType(ContentTypeJSON))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if want := `{"phone_number":"15551234567","message":"hello"}`; got.body != want {
		t.Fatalf("body %q, want %q", got.body, want)
	}
	if got.contentType != ContentTypeJSON {
		t.Fatalf("content type %q, want %q", got.contentType, ContentTypeJSON)
	}
	if got.rawQuery != "" {
		t.Fatalf("POST carried a query string: %q", got.rawQuery)
	}
}

func TestPostFormFieldsBecomeBody(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()

	_, err := newTestClient(srv.URL).Post(context.Background(), "/v1/messaging",
		Fields{F("a", "1"), F("b", "2")})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got.body != "a=1&b=2" {
		t.Fatalf("body %q, want %q", got.body, "a=1&b=2")
	}
	if got.contentType != ContentTypeForm {
		t.Fatalf("content type %q, want %q", got.contentType, ContentTypeForm)
	}
}

func TestEmptyFieldsNoBodyNoQuery(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()
	client := newTestClient(srv.URL)

	for _, call := range []func(context.Context, string, Fields, ...RequestOption) (*Response, error){
		client.Get, client.Post, client.Put, client.Patch, client.Delete,
	} {
		if _, err := call(context.Background(), "/v1/status", nil); err != nil {
			t.Fatalf("call: %v", err)
		}
		if got.body != "" {
			t.Fatalf("%s carried a body: %q", got.method, got.body)
		}
		if got.rawQuery != "" {
			t.Fatalf("%s carried a query string: %q", got.method, got.rawQuery)
		}
	}
}

func TestVerbDispatch(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()
	client := newTestClient(srv.URL)
	ctx := context.Background()

	cases := []struct {
		call func(context.Context, string, Fields, ...RequestOption) (*Response, error)
		want string
	}{
		{client.Get, http.MethodGet},
		{client.Post, http.MethodPost},
		{client.Put, http.MethodPut},
		{client.Patch, http.MethodPatch},
		{client.Delete, http.MethodDelete},
	}
	for _, tc := range cases {
		if _, err := tc.call(ctx, "/v1/x", nil); err != nil {
			t.Fatalf("%s: %v", tc.want, err)
		}
		if got.method != tc.want {
			t.Fatalf("dispatched %s, want %s", got.method, tc.want)
		}
	}
}

func TestAuthHeadersSent(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()

	_, err := newTestClient(srv.URL).Get(context.Background(), "/v1/status", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.auth != "Basic Q1VTVDE6YTJWNQ==" {
		t.Fatalf("Authorization %q", got.auth)
	}
	if !strings.HasPrefix(got.userAgent, "SamvadRESTClient/"+Version) {
		t.Fatalf("User-Agent %q", got.userAgent)
	}
}

func TestNon2xxIsResponseNotError(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Get(context.Background(), "/v1/status", nil)
	if err != nil {
		t.Fatalf("non-2xx surfaced as error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	if resp.Ok() {
		t.Fatalf("Ok() true for status %d", resp.StatusCode)
	}
	if resp.String() != `{"error":"boom"}` {
		t.Fatalf("body %q", resp.String())
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, "")
	srv.Close() // connection refused from here on

	if _, err := newTestClient(srv.URL).Get(context.Background(), "/v1/status", nil); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestInvalidAPIKeyFailsBeforeDispatch(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()

	client := New("CUST1", "%%%", WithEndpoint(srv.URL))
	_, err := client.Get(context.Background(), "/v1/status", nil)
	if !errors.Is(err, auth.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
	if got.method != "" {
		t.Fatalf("request was dispatched despite signing failure")
	}
}

func TestSigningOverridesReachSigner(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, "")
	defer srv.Close()

	client := New("CUST1", "a2V5",
		WithEndpoint(srv.URL),
		WithSigner(auth.Signer{
			Now:      func() time.Time { panic("clock must not be read when date is fixed") },
			NewNonce: func() string { panic("nonce source must not be used when nonce is fixed") },
		}))

	_, err := client.Post(context.Background(), "/v1/x", Fields{F("a", "1")},
		WithDate("Tue, 01 Jan 2019 00:00:00 GMT"), WithNonce("N1"))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
}
