package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func newTestAdapter(h http.HandlerFunc) *Adapter {
	return NewAdapter(h, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleRequestTranslation(t *testing.T) {
	var got *http.Request
	var gotBody []byte

	a := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	})

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/png/50",
		Headers:               map[string]string{"Content-Type": "image/png", "Host": "api.example.com"},
		QueryStringParameters: map[string]string{"debug": "1"},
		Body:                  base64.StdEncoding.EncodeToString(png),
		IsBase64Encoded:       true,
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: "192.0.2.44"},
		},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if got.Method != http.MethodPost || got.URL.Path != "/png/50" {
		t.Errorf("request = %s %s", got.Method, got.URL.Path)
	}
	if got.URL.Query().Get("debug") != "1" {
		t.Errorf("query = %q", got.URL.RawQuery)
	}
	if got.Header.Get("Content-Type") != "image/png" || got.Host != "api.example.com" {
		t.Errorf("headers = %v, host = %q", got.Header, got.Host)
	}
	if got.RemoteAddr != "192.0.2.44:0" {
		t.Errorf("RemoteAddr = %q", got.RemoteAddr)
	}
	if string(gotBody) != string(png) {
		t.Errorf("body = %x, want %x", gotBody, png)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if resp.IsBase64Encoded {
		t.Error("JSON response should not be base64 encoded")
	}
	if resp.Body != "{\"hello\":\"world\"}\n" {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", resp.Headers["Content-Type"])
	}
}

func TestHandleBinaryResponse(t *testing.T) {
	data := []byte{0x00, 0xff, 0x10}
	a := newTestAdapter(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	})

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/files/a.png"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Fatalf("StatusCode = %d, IsBase64Encoded = %v", resp.StatusCode, resp.IsBase64Encoded)
	}
	decoded, _ := base64.StdEncoding.DecodeString(resp.Body)
	if string(decoded) != string(data) {
		t.Errorf("decoded body = %x", decoded)
	}
}

func TestHandleMultiValueParameters(t *testing.T) {
	var got *http.Request
	a := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:                      http.MethodGet,
		Path:                            "/map",
		MultiValueHeaders:               map[string][]string{"X-Forwarded-For": {"203.0.113.9", "10.0.0.1"}},
		MultiValueQueryStringParameters: map[string][]string{"tag": {"a", "b"}},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if tags := got.URL.Query()["tag"]; len(tags) != 2 {
		t.Errorf("tag = %v, want two values", tags)
	}
	if xff := got.Header.Values("X-Forwarded-For"); len(xff) != 2 {
		t.Errorf("X-Forwarded-For = %v", xff)
	}
}

func TestHandleMalformedBody(t *testing.T) {
	called := false
	a := newTestAdapter(func(http.ResponseWriter, *http.Request) { called = true })

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/png",
		Body:            "%%%not-base64",
		IsBase64Encoded: true,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", resp.StatusCode)
	}
	if called {
		t.Error("handler should not run for a malformed event")
	}
}

func TestIsTextual(t *testing.T) {
	tests := map[string]bool{
		"":                         true,
		"text/html; charset=utf-8": true,
		"application/json":         true,
		"application/problem+json": true,
		"image/png":                false,
		"application/octet-stream": false,
	}
	for contentType, want := range tests {
		if got := isTextual(contentType); got != want {
			t.Errorf("isTextual(%q) = %v, want %v", contentType, got, want)
		}
	}
}
