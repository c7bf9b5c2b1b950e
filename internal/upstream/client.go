// Package upstream holds one thin client per upstream service. Clients do
// not retry; a failed call means the source is unavailable for this request.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"incentive-engine/internal/config"
	"incentive-engine/internal/metrics"
)

const HeaderRequestID = "X-Request-ID"

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
	maxErrorBody       = 512
)

var tracer = otel.Tracer("incentive-engine/upstream")

// Credentials are forwarded to every upstream call as-is.
type Credentials struct {
	Token     string
	RequestID string
}

type Options struct {
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	// Dial replaces the TCP dialer; tests point it at in-memory listeners.
	Dial fasthttp.DialFunc
}

func OptionsFromConfig(cfg config.Upstream, m *metrics.Metrics, log *zap.Logger) Options {
	return Options{
		Timeout:     cfg.Timeout,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
		Metrics:     m,
		Logger:      log,
	}
}

type client struct {
	service string
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newClient(service, baseURL string, opts Options) *client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = defaultMaxFailures
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("upstream", service))

	maxFailures := opts.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A 4xx or an expired caller context is the caller's problem, not
		// the service's.
		IsSuccessful: func(err error) bool {
			if err == nil || callerGaveUp(err) {
				return true
			}
			var te *TransportError
			if errors.As(err, &te) {
				return te.Status >= 400 && te.Status < 500
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                "incentive-engine",
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxIdleConnDuration: 90 * time.Second,
			Dial:                opts.Dial,
		},
		timeout: opts.Timeout,
		breaker: breaker,
		metrics: opts.Metrics,
		log:     log,
	}
}

// get fetches path and decodes the envelope's data into out.
func (c *client) get(ctx context.Context, creds Credentials, path string, query map[string]string, out any) error {
	ctx, span := tracer.Start(ctx, "upstream."+c.service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.service", c.service),
			attribute.String("upstream.path", path),
		))
	defer span.End()

	start := time.Now()
	err := ctx.Err()
	if err != nil {
		err = &TransportError{Service: c.service, Err: err}
	} else {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, c.do(ctx, creds, path, query, out)
		})
	}

	outcome := "ok"
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "rejected"
			err = &TransportError{Service: c.service, Err: err}
		case callerGaveUp(err):
			outcome = "cancelled"
		default:
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.log.Debug("Upstream call failed", zap.String("path", path), zap.Error(err))
	}
	c.metrics.ObserveUpstream(c.service, outcome, time.Since(start))
	return err
}

func (c *client) do(ctx context.Context, creds Credentials, path string, query map[string]string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url(path, query))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if creds.Token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, creds.Token)
	}
	if creds.RequestID != "" {
		req.Header.Set(HeaderRequestID, creds.RequestID)
	}

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return &TransportError{Service: c.service, Err: contextCause(ctx, err)}
	}

	status := resp.StatusCode()
	if status >= fasthttp.StatusBadRequest {
		return &TransportError{Service: c.service, Status: status, Err: fmt.Errorf("unexpected response: %s", truncate(resp.Body()))}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &TransportError{Service: c.service, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &TransportError{Service: c.service, Status: status, Err: errMissingData}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Service: c.service, Status: status, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func (c *client) url(path string, query map[string]string) string {
	u := c.baseURL + path
	if len(query) == 0 {
		return u
	}
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	for k, v := range query {
		args.Set(k, v)
	}
	return u + "?" + args.String()
}

// deadline is the configured timeout, or the context deadline when sooner.
func (c *client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// contextCause attaches the context error when the caller's context, not the
// client timeout, ended the call.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	if d, ok := ctx.Deadline(); ok && errors.Is(err, fasthttp.ErrTimeout) && !time.Now().Before(d) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func callerGaveUp(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsTimeout reports whether err came from a call that ran out of time, either
// on the client timeout or on the caller's deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, fasthttp.ErrTimeout)
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "...(truncated)"
	}
	return s
}
