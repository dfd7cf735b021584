// Package lambda runs the HTTP handler behind API Gateway proxy events.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter translates API Gateway proxy events into HTTP requests.
type Adapter struct {
	handler http.Handler
	logger  *slog.Logger
}

// NewAdapter creates an adapter serving events with handler.
func NewAdapter(handler http.Handler, logger *slog.Logger) *Adapter {
	return &Adapter{
		handler: handler,
		logger:  logger,
	}
}

// Handle serves a single proxy event. Malformed events produce a 400
// response, never an invocation error.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := newRequest(ctx, event)
	if err != nil {
		a.logger.Warn("rejecting malformed event", "path", event.Path, "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
			Body:       http.StatusText(http.StatusBadRequest),
		}, nil
	}

	rw := newResponseBuffer()
	a.handler.ServeHTTP(rw, req)

	return rw.proxyResponse(), nil
}

// newRequest builds an http.Request from a proxy event.
func newRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
		body = decoded
	}

	path := event.Path
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path, RawQuery: queryValues(event).Encode()}

	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if len(event.MultiValueHeaders) > 0 {
		for name, values := range event.MultiValueHeaders {
			for _, v := range values {
				req.Header.Add(name, v)
			}
		}
	} else {
		for name, v := range event.Headers {
			req.Header.Set(name, v)
		}
	}

	req.Host = req.Header.Get("Host")
	req.RequestURI = u.RequestURI()
	req.ContentLength = int64(len(body))
	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		req.RemoteAddr = net.JoinHostPort(ip, "0")
	}

	return req, nil
}

func queryValues(event events.APIGatewayProxyRequest) url.Values {
	values := url.Values{}
	if len(event.MultiValueQueryStringParameters) > 0 {
		for name, vs := range event.MultiValueQueryStringParameters {
			values[name] = append(values[name], vs...)
		}
		return values
	}
	for name, v := range event.QueryStringParameters {
		values.Set(name, v)
	}
	return values
}

// responseBuffer collects a handler response in memory.
type responseBuffer struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (r *responseBuffer) Header() http.Header {
	return r.header
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *responseBuffer) WriteHeader(code int) {
	if r.statusCode == 0 {
		r.statusCode = code
	}
}

func (r *responseBuffer) proxyResponse() events.APIGatewayProxyResponse {
	status := r.statusCode
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(r.header)),
		MultiValueHeaders: make(map[string][]string, len(r.header)),
	}
	for name, values := range r.header {
		resp.MultiValueHeaders[name] = values
		if len(values) > 0 {
			resp.Headers[name] = values[len(values)-1]
		}
	}

	if isTextual(r.header.Get("Content-Type")) {
		resp.Body = r.body.String()
	} else if r.body.Len() > 0 {
		resp.Body = base64.StdEncoding.EncodeToString(r.body.Bytes())
		resp.IsBase64Encoded = true
	}

	return resp
}

// isTextual reports whether a body of contentType can travel as plain text.
func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/xml",
		strings.HasSuffix(mediaType, "+json"),
		strings.HasSuffix(mediaType, "+xml"):
		return true
	}
	return false
}
