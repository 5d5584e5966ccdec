// Package client provides the authenticated REST client for the MOOD ON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/raphaelgruber/moodon/internal/metrics"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultCSRFCookieName = "csrftoken"
	DefaultCSRFHeader     = "X-CSRFToken"
	DefaultTimeout        = 60 * time.Second
)

// CookieStore persists session cookies between processes.
type CookieStore interface {
	LoadCookies(ctx context.Context) []*http.Cookie
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	CSRFCookieName string
	CSRFHeader     string
	Cookies        CookieStore
	Logger         *slog.Logger
	Metrics        *metrics.Collector
	Transport      http.RoundTripper
}

// Client issues credentialed JSON and multipart requests against the API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	csrfCookie string
	csrfHeader string
	cookies    CookieStore
	logger     *slog.Logger
}

// New creates a new API client.
// If cfg.BaseURL is empty, uses MOODON_BASE_URL env var or defaults to localhost:8000.
func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = os.Getenv("MOODON_BASE_URL")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", base)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: newLoggingTransport(transport, logger, cfg.Metrics),
		},
		jar:        jar,
		csrfCookie: orDefault(cfg.CSRFCookieName, DefaultCSRFCookieName),
		csrfHeader: orDefault(cfg.CSRFHeader, DefaultCSRFHeader),
		cookies:    cfg.Cookies,
		logger:     logger,
	}

	if c.cookies != nil {
		if saved := c.cookies.LoadCookies(context.Background()); len(saved) > 0 {
			jar.SetCookies(u, saved)
		}
	}
	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// csrfToken returns the anti-forgery token from the cookie jar, if any.
func (c *Client) csrfToken() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == c.csrfCookie {
			return ck.Value
		}
	}
	return ""
}

// Do sends a JSON request and decodes the response into out (if non-nil).
// body is JSON-serialized when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// DoMultipart sends a multipart/form-data POST with the given fields and optional file.
func (c *Client) DoMultipart(ctx context.Context, path string, fields map[string]string, file *FilePart, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		if file.ContentType != "" {
			h.Set("Content-Type", file.ContentType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.csrfToken(); token != "" {
		req.Header.Set(c.csrfHeader, token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.persistCookies(req.Context())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, out) != nil {
		// Empty or non-JSON success bodies decode as an empty object,
		// discarding anything a partial decode left behind.
		resetValue(out)
		_ = json.Unmarshal([]byte("{}"), out)
	}
	return nil
}

// resetValue zeroes the value out points to.
func resetValue(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}

func (c *Client) persistCookies(ctx context.Context) {
	if c.cookies == nil {
		return
	}
	if err := c.cookies.SaveCookies(ctx, c.jar.Cookies(c.baseURL)); err != nil {
		c.logger.Warn("failed to persist cookies", "error", err)
	}
}

// ForgetCookies drops every cookie for the API host (local logout).
func (c *Client) ForgetCookies(ctx context.Context) {
	expired := make([]*http.Cookie, 0)
	for _, ck := range c.jar.Cookies(c.baseURL) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.baseURL, expired)
	c.persistCookies(ctx)
}
