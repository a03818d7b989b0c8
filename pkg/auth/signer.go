package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method is the signing method advertised in the canonical string.
const Method = "HMAC-SHA256"

// ErrInvalidAPIKey reports an API key that is not valid base64. This is a
// configuration problem, not a runtime one.
var ErrInvalidAPIKey = errors.New("api key is not valid base64")

// Credentials identify a vendor API account. APIKey is the base64-encoded
// secret issued by the vendor; it is decoded before being used as an HMAC key.
type Credentials struct {
	CustomerID string
	APIKey     string
}

// Header is a single HTTP header name/value pair. Generated headers are
// returned as a slice sorted by name so their order is deterministic.
type Header struct {
	Name  string
	Value string
}

// Signer produces authentication headers for outbound requests. The zero
// value uses the UTC wall clock and random UUID nonces; tests replace Now
// and NewNonce (or pass WithDate/WithNonce) to get deterministic output.
type Signer struct {
	Now      func() time.Time
	NewNonce func() string
}

// Option overrides one of the generated request attributes.
type Option func(*options)

type options struct {
	date      string
	nonce     string
	userAgent string
}

// WithDate fixes the request date instead of reading the clock. The value
// must be an HTTP-date string in GMT.
func WithDate(date string) Option {
	return func(o *options) { o.date = date }
}

// WithNonce fixes the request nonce instead of generating one.
func WithNonce(nonce string) Option {
	return func(o *options) { o.nonce = nonce }
}

// WithUserAgent adds a User-Agent header to the generated set.
func WithUserAgent(userAgent string) Option {
	return func(o *options) { o.userAgent = userAgent }
}

// StringToSign builds the canonical newline-delimited representation of a
// request. The segment order is fixed by the server-side verifier; the empty
// third line stands in for a Date header that is never sent.
func StringToSign(method, contentType, resource, body, date, nonce string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(strings.ToLower(contentType))
	b.WriteByte('\n')
	b.WriteByte('\n')
	b.WriteString("x-ts-auth-method: " + Method + "\n")
	b.WriteString("x-ts-date: " + date + "\n")
	b.WriteString("x-ts-nonce: " + nonce + "\n")
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString(resource)
	return b.String()
}

// Signature signs stringToSign with the base64-encoded apiKey and returns
// the base64-encoded HMAC-SHA256 digest.
func Signature(apiKey, stringToSign string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// GenerateHeaders computes the authentication headers for a request. It
// always contains Content-Type and Authorization, plus User-Agent when one
// is supplied, sorted ascending by header name.
//
// The HMAC signature over the canonical string is computed on every call,
// but the emitted Authorization header still carries the Basic credentials
// rather than the signature. Both paths are kept as-is until the server-side
// scheme migration lands; do not drop either one.
func (s Signer) GenerateHeaders(creds Credentials, method, contentType, resource, body string, opts ...Option) ([]Header, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.date == "" {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		o.date = now().UTC().Format(http.TimeFormat)
	}
	if o.nonce == "" {
		if s.NewNonce != nil {
			o.nonce = s.NewNonce()
		} else {
			o.nonce = uuid.NewString()
		}
	}

	if _, err := Signature(creds.APIKey, StringToSign(method, contentType, resource, body, o.date, o.nonce)); err != nil {
		return nil, err
	}

	basic := base64.StdEncoding.EncodeToString([]byte(creds.CustomerID + ":" + creds.APIKey))
	headers := []Header{
		{Name: "Authorization", Value: "Basic " + basic},
		{Name: "Content-Type", Value: contentType},
	}
	if o.userAgent != "" {
		headers = append(headers, Header{Name: "User-Agent", Value: o.userAgent})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Name < headers[j].Name })
	return headers, nil
}

// GenerateHeaders signs with the default clock and nonce source.
func GenerateHeaders(creds Credentials, method, contentType, resource, body string, opts ...Option) ([]Header, error) {
	return Signer{}.GenerateHeaders(creds, method, contentType, resource, body, opts...)
}
