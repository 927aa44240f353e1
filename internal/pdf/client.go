package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// ConvertHTMLPath is the conversion route of Gotenberg compatible services.
const ConvertHTMLPath = "/forms/chromium/convert/html"

const maxErrorBody = 4 << 10

// ErrInvalidEndpoint is returned for endpoints that are not absolute
// http(s) URLs.
var ErrInvalidEndpoint = errors.New("pdf: endpoint must be an absolute http(s) url")

// StatusError reports a non-2xx answer from the conversion service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pdf: conversion failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("pdf: conversion failed with status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient posts HTML pages to an HTML-to-PDF conversion service.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	logger   interfaces.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets the transport client. Timeouts belong to the request
// context; the default client has none.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger interfaces.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient builds a client for the service at endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidEndpoint
	}
	c := &HTTPClient{
		endpoint: strings.TrimRight(u.String(), "/") + ConvertHTMLPath,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logging.Ensure(c.logger)
	return c, nil
}

var _ interfaces.PDFRenderer = (*HTTPClient)(nil)

// RenderPDF uploads req.HTML as index.html and returns the PDF stream.
func (c *HTTPClient) RenderPDF(ctx context.Context, req interfaces.RenderRequest) (io.ReadCloser, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("pdf: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if name := strings.TrimSpace(req.Title); name != "" {
		httpReq.Header.Set("Gotenberg-Output-Filename", name)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pdf: request: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(detail))}
		c.logger.Error("pdf.render.failed", "status", res.StatusCode, "error", statusErr)
		return nil, statusErr
	}
	return res.Body, nil
}

func encodeForm(req interfaces.RenderRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	file, err := form.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", fmt.Errorf("pdf: encode form: %w", err)
	}
	if _, err := io.WriteString(file, req.HTML); err != nil {
		return nil, "", fmt.Errorf("pdf: encode form: %w", err)
	}
	if req.ReadyExpression != "" {
		if err := form.WriteField("waitForExpression", req.ReadyExpression); err != nil {
			return nil, "", fmt.Errorf("pdf: encode form: %w", err)
		}
	}
	if err := form.WriteField("printBackground", "true"); err != nil {
		return nil, "", fmt.Errorf("pdf: encode form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("pdf: encode form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}
