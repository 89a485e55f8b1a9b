package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/sabbour/worldtime-mcp-go/internal/telemetry"
)

const (
	maxBodyBytes  = 4 << 20
	maxErrorBytes = 512
)

// Options are shared by both upstream clients.
type Options struct {
	UserAgent string
	// Timeout bounds a single request. Zero means no limit beyond the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Tracer     trace.Tracer
	// Debug receives request traces when set.
	Debug *log.Logger
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

type getter struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	tracer    trace.Tracer
	debug     *log.Logger
}

func newGetter(opts Options) *getter {
	g := &getter{
		client:    opts.HTTPClient,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		tracer:    opts.Tracer,
		debug:     opts.Debug,
	}
	if g.client == nil {
		g.client = http.DefaultClient
	}
	if g.tracer == nil {
		g.tracer = noop.NewTracerProvider().Tracer("upstream")
	}
	return g
}

func (g *getter) debugf(format string, args ...any) {
	if g.debug != nil {
		g.debug.Printf("DEBUG: "+format, args...)
	}
}

// getJSON issues a GET and decodes the JSON body into target.
func (g *getter) getJSON(ctx context.Context, rawURL string, target any) (err error) {
	safeURL := telemetry.RedactURL(rawURL)

	ctx, span := g.tracer.Start(ctx, "upstream.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", safeURL),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", safeURL, unwrapURLError(err))
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	g.debugf("GET %s", safeURL)
	resp, err := g.client.Do(req)
	if err != nil {
		g.debugf("GET %s failed: %v", safeURL, unwrapURLError(err))
		return fmt.Errorf("request %s: %w", safeURL, unwrapURLError(err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	g.debugf("GET %s -> %d", safeURL, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &StatusError{
			URL:        safeURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", safeURL, err)
	}
	return nil
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the unredacted URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func joinURL(base string, segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, strings.TrimRight(base, "/"))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}
