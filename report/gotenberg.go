// Package report converts invoice documents to PDF with Gotenberg's Chromium
// HTML route.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/billdesk/billdesk/internal/platform/httpx"
)

// ErrNotConfigured is returned when no renderer URL was given.
var ErrNotConfigured = errors.New("report: gotenberg url not configured")

const (
	convertPath    = "/forms/chromium/convert/html"
	healthPath     = "/health"
	defaultTimeout = 30 * time.Second
	defaultName    = "document.pdf"
	maxErrorBody   = 512
)

// Paper is a page size and margin in inches.
type Paper struct {
	Width  float64
	Height float64
	Margin float64
}

// A4 is the paper invoices are printed on.
var A4 = Paper{Width: 8.27, Height: 11.7, Margin: 0.4}

// Document is one HTML page to convert. Name is the file name Gotenberg
// reports for the PDF; it defaults to document.pdf.
type Document struct {
	Name string
	HTML string
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every call, including the upload. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithPaper overrides the A4 default.
func WithPaper(p Paper) Option {
	return func(c *Client) {
		if p.Width > 0 && p.Height > 0 {
			c.paper = p
		}
	}
}

// WithHTTPClient swaps the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client renders documents through a Gotenberg instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	paper      Paper
}

// NewClient constructs a renderer. An empty baseURL yields a client whose
// calls fail with ErrNotConfigured.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		paper:      A4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Ping checks that Gotenberg answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report: ping: %w: %v", httpx.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("report: ping: %w: status %d", httpx.ErrUpstream, resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a standalone HTML page with the default file name.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return c.Render(ctx, Document{HTML: html})
}

// Render converts doc to PDF. Failures on Gotenberg's side wrap
// httpx.ErrUpstream; a 4xx means the form itself was rejected.
func (c *Client) Render(ctx context.Context, doc Document) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	body, contentType, err := c.form(doc)
	if err != nil {
		return nil, fmt.Errorf("report: build form: %w", err)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Gotenberg-Output-Filename", strings.TrimSuffix(fileName(doc), ".pdf"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report: render %s: %w: %v", fileName(doc), httpx.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode >= 500:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("report: render %s: %w: status %d: %s", fileName(doc), httpx.ErrUpstream, resp.StatusCode, snippet)
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("report: render %s rejected with status %d: %s", fileName(doc), resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}

// form builds the multipart body. Chromium only accepts the entry page under
// the name index.html.
func (c *Client) form(doc Document) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, doc.HTML); err != nil {
		return nil, "", err
	}
	fields := [][2]string{
		{"paperWidth", inches(c.paper.Width)},
		{"paperHeight", inches(c.paper.Height)},
		{"marginTop", inches(c.paper.Margin)},
		{"marginBottom", inches(c.paper.Margin)},
		{"marginLeft", inches(c.paper.Margin)},
		{"marginRight", inches(c.paper.Margin)},
		{"printBackground", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fileName(doc Document) string {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return defaultName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
