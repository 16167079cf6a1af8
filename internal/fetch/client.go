// Package fetch retrieves export sources over HTTP before they enter the
// conversion pipeline.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/air-gapped/enml/internal/ssrf"
)

var (
	// ErrTooLarge is returned when a source exceeds the configured size limit.
	ErrTooLarge = errors.New("source too large")
	// ErrBlocked is returned when a source host is refused by the allowlist
	// or the address guard.
	ErrBlocked = ssrf.ErrBlocked
	// ErrUpstreamStatus is returned for non-2xx upstream responses.
	ErrUpstreamStatus = errors.New("upstream status")
)

// DefaultFilename names a source whose URL path has no usable last segment.
const DefaultFilename = "index.html"

// Proxy describes an HTTP proxy. An empty Host disables it.
type Proxy struct {
	Host     string
	Port     int
	User     string
	Password string
}

// URL returns the proxy URL with credentials as userinfo, or nil when unset.
func (p Proxy) URL() *url.URL {
	if p.Host == "" {
		return nil
	}
	host := p.Host
	if p.Port > 0 {
		host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	u := &url.URL{Scheme: "http", Host: host}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u
}

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	MaxFileSize int64
	Proxy       Proxy
	// Allowlist restricts source hosts. Allowlisted hosts may be private.
	Allowlist *Allowlist
	// AllowPrivate turns off the address guard entirely.
	AllowPrivate  bool
	TLSSkipVerify bool
}

// Result holds the outcome of a source fetch.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
	Filename    string
	FetchMs     int64
}

// Client fetches export sources from upstream URLs.
type Client struct {
	httpClient  *http.Client
	maxFileSize int64
	allowlist   *Allowlist
	guard       bool
	proxied     bool
	resolve     ssrf.Resolver
}

// NewClient creates a fetch client with the given options.
func NewClient(opts Options) *Client {
	c := &Client{
		maxFileSize: opts.MaxFileSize,
		allowlist:   opts.Allowlist,
		guard:       !opts.AllowPrivate && opts.Allowlist == nil,
		resolve:     net.DefaultResolver.LookupIPAddr,
	}

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL := opts.Proxy.URL(); proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
		c.proxied = true
	} else {
		transport.Proxy = nil
		if c.guard {
			dialer.Control = ssrf.Control
		}
	}
	transport.DialContext = dialer.DialContext
	if opts.TLSSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c.httpClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return c.checkHost(req.Context(), req.URL.Host)
		},
	}
	return c
}

// ParseSourceURL validates that raw is an absolute http or https URL.
func ParseSourceURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty source URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host in source URL")
	}
	return u, nil
}

// checkHost applies the allowlist, then the address guard. Behind a proxy the
// dial hook only ever sees the proxy, so the target is resolved here instead.
func (c *Client) checkHost(ctx context.Context, host string) error {
	if !c.allowlist.Allows(ctx, host) {
		return fmt.Errorf("host %s not in allowlist: %w", host, ErrBlocked)
	}
	if !c.guard {
		return nil
	}
	if c.proxied {
		return ssrf.CheckHost(ctx, c.resolve, host)
	}
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	if ip := net.ParseIP(strings.Trim(name, "[]")); ip != nil && ssrf.IsBlockedIP(ip) {
		return fmt.Errorf("host %s: %w", host, ErrBlocked)
	}
	return nil
}

// Fetch retrieves the source at rawURL. No caller credentials are forwarded.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	u, err := ParseSourceURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.checkHost(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d from %s", ErrUpstreamStatus, resp.StatusCode, u.Host)
	}

	if resp.ContentLength > c.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, resp.ContentLength, c.maxFileSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.maxFileSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes limit", ErrTooLarge, c.maxFileSize)
	}

	return &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filename(resp),
		FetchMs:     time.Since(start).Milliseconds(),
	}, nil
}

// filename prefers Content-Disposition, then the final URL path segment.
func filename(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(params["filename"]); name != "." && name != "/" && params["filename"] != "" {
				return name
			}
		}
	}
	base := path.Base(resp.Request.URL.Path)
	if base == "." || base == "/" || base == "" {
		return DefaultFilename
	}
	return base
}

// CloseIdleConnections closes idle keep-alive connections to upstreams.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
