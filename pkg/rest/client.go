package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/samvad-hq/samvad-rest-client/pkg/auth"
)

// Version is the SDK release version reported in the User-Agent header.
const Version = "1.0.0"

const (
	// DefaultEndpoint is the production vendor API base URL.
	DefaultEndpoint = "https://rest-api.telesign.com"
	// DefaultTimeout bounds each request when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	// ContentTypeForm is the default content type for request fields.
	ContentTypeForm = "application/x-www-form-urlencoded"
	// ContentTypeJSON selects JSON serialization of request fields.
	ContentTypeJSON = "application/json"
)

// Client signs and dispatches requests against the vendor REST API. Its
// configuration is immutable after New, so a single Client is safe for
// concurrent use as long as the underlying transport is.
type Client struct {
	creds     auth.Credentials
	signer    auth.Signer
	endpoint  string
	timeout   time.Duration
	proxy     string
	userAgent string
	http      *resty.Client
	log       *zap.SugaredLogger
}

// Option configures the Client at construction time.
type Option func(*Client)

// WithEndpoint overrides the vendor API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithProxy routes requests through the given proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *Client) { c.proxy = proxyURL }
}

// WithTransport injects a pre-configured resty client, bypassing the
// timeout/proxy options. Intended for tests and callers needing custom
// transport settings.
func WithTransport(transport *resty.Client) Option {
	return func(c *Client) { c.http = transport }
}

// WithSigner injects the signer, letting tests fix the clock and nonce source.
func WithSigner(signer auth.Signer) Option {
	return func(c *Client) { c.signer = signer }
}

// WithLogger enables debug logging of dispatched requests.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a Client for the given account. No network I/O happens here;
// the first connection is made on the first request.
func New(customerID, apiKey string, opts ...Option) *Client {
	c := &Client{
		creds:    auth.Credentials{CustomerID: customerID, APIKey: apiKey},
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		userAgent: fmt.Sprintf("SamvadRESTClient/%s %s resty/%s",
			Version, runtime.Version(), resty.Version),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New().SetTimeout(c.timeout)
		if c.proxy != "" {
			c.http.SetProxy(c.proxy)
		}
	}
	return c
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	contentType string
	date        string
	nonce       string
}

// WithContentType overrides the content type for one request. Only
// ContentTypeJSON changes how fields are serialized; everything else gets
// the form encoding.
func WithContentType(contentType string) RequestOption {
	return func(o *requestOptions) { o.contentType = contentType }
}

// WithDate fixes the signing date for one request.
func WithDate(date string) RequestOption {
	return func(o *requestOptions) { o.date = date }
}

// WithNonce fixes the signing nonce for one request.
func WithNonce(nonce string) RequestOption {
	return func(o *requestOptions) { o.nonce = nonce }
}

// Get performs a GET request. Fields become the URL query string.
func (c *Client) Get(ctx context.Context, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, http.MethodGet, resource, fields, opts...)
}

// Post performs a POST request. Fields become the request body.
func (c *Client) Post(ctx context.Context, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, http.MethodPost, resource, fields, opts...)
}

// Put performs a PUT request. Fields become the request body.
func (c *Client) Put(ctx context.Context, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, http.MethodPut, resource, fields, opts...)
}

// Patch performs a PATCH request. Fields become the request body.
func (c *Client) Patch(ctx context.Context, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, http.MethodPatch, resource, fields, opts...)
}

// Delete performs a DELETE request. Fields become the URL query string.
func (c *Client) Delete(ctx context.Context, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, http.MethodDelete, resource, fields, opts...)
}

// execute builds the body, signs the request, and hands it to the transport.
// Network failures propagate from the transport; non-2xx responses do not.
func (c *Client) execute(ctx context.Context, method, resource string, fields Fields, opts ...RequestOption) (*Response, error) {
	ro := requestOptions{contentType: ContentTypeForm}
	for _, opt := range opts {
		opt(&ro)
	}

	body, err := encodeBody(fields, ro.contentType)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	signOpts := []auth.Option{auth.WithUserAgent(c.userAgent)}
	if ro.date != "" {
		signOpts = append(signOpts, auth.WithDate(ro.date))
	}
	if ro.nonce != "" {
		signOpts = append(signOpts, auth.WithNonce(ro.nonce))
	}
	headers, err := c.signer.GenerateHeaders(c.creds, method, ro.contentType, resource, body, signOpts...)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	for _, h := range headers {
		req.SetHeader(h.Name, h.Value)
	}

	// A request carries either a body or a query string, never both. The
	// query is appended to the URL verbatim; resty's query-param map would
	// reorder the fields.
	url := c.endpoint + resource
	if body != "" {
		switch method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			req.SetBody(body)
		default:
			url += "?" + body
		}
	}

	if c.log != nil {
		c.log.Debugw("dispatching request",
			"method", method,
			"resource", resource,
			"content_type", ro.contentType,
			"has_body", body != "")
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, resource, err)
	}
	return newResponse(resp), nil
}

// encodeBody serializes fields per content type. Empty fields produce no
// body regardless of content type.
func encodeBody(fields Fields, contentType string) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	if contentType == ContentTypeJSON {
		raw, err := json.Marshal(fields)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return fields.Encode(), nil
}
