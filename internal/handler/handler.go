// Package handler exposes the aggregated view-models over HTTP.
package handler

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"incentive-engine/internal/config"
	"incentive-engine/internal/metrics"
	"incentive-engine/internal/model"
	"incentive-engine/internal/series"
	"incentive-engine/internal/upstream"
)

const defaultRequestTimeout = 15 * time.Second

// Service is the set of views the handler can serve.
type Service interface {
	RecruitmentSummary(ctx context.Context, creds upstream.Credentials, period series.Period) model.RecruitmentSummary
	TransferSummary(ctx context.Context, creds upstream.Credentials) (model.TransferSummary, error)
	WalletSummary(ctx context.Context, creds upstream.Credentials) model.WalletSummary
	IncentiveSummary(ctx context.Context, creds upstream.Credentials) model.IncentiveSummary
	Permissions(ctx context.Context, creds upstream.Credentials) model.TierPermission
	Dashboard(ctx context.Context, creds upstream.Credentials, period series.Period) model.DashboardView
}

type Options struct {
	Service   Service
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	RateLimit config.RateLimit
	// RequestTimeout bounds the upstream work done for one request.
	RequestTimeout time.Duration
}

type Handler struct {
	svc     Service
	metrics *metrics.Metrics
	log     *zap.Logger
	limiter *RateLimiter
	timeout time.Duration
	routes  map[string]route
	scrape  fasthttp.RequestHandler
}

// route handlers write the response body; status defaults to 200.
type route struct {
	authenticated bool
	serve         func(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials)
}

func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	h := &Handler{
		svc:     opts.Service,
		metrics: opts.Metrics,
		log:     log,
		limiter: NewRateLimiter(opts.RateLimit),
		timeout: timeout,
		scrape: fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(opts.Metrics.Registry(), promhttp.HandlerOpts{}),
		),
	}
	h.routes = map[string]route{
		"/healthz":        {serve: h.healthz},
		"/metrics":        {serve: h.metricsScrape},
		"/v1/recruitment": {authenticated: true, serve: h.recruitment},
		"/v1/transfers":   {authenticated: true, serve: h.transfers},
		"/v1/wallet":      {authenticated: true, serve: h.wallet},
		"/v1/incentives":  {authenticated: true, serve: h.incentives},
		"/v1/permissions": {authenticated: true, serve: h.permissions},
		"/v1/dashboard":   {authenticated: true, serve: h.dashboard},
	}
	return h
}

// Limiter is exposed so the server can sweep idle callers.
func (h *Handler) Limiter() *RateLimiter { return h.limiter }

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	requestID := string(ctx.Request.Header.Peek(upstream.HeaderRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Response.Header.Set(upstream.HeaderRequestID, requestID)

	rt, ok := h.routes[path]
	label := path
	if !ok {
		label = "unmatched"
	}
	defer func() {
		h.metrics.ObserveHTTP(label, ctx.Response.StatusCode(), time.Since(start))
	}()

	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return
	}
	if !ctx.IsGet() {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, fasthttp.MethodGet)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	creds := upstream.Credentials{
		Token:     string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)),
		RequestID: requestID,
	}
	if rt.authenticated {
		if creds.Token == "" {
			writeError(ctx, fasthttp.StatusUnauthorized, "Missing Authorization header")
			return
		}
		if !h.limiter.Allow(creds.Token) {
			h.log.Info("Rate limit exceeded",
				zap.String("request_id", requestID),
				zap.String("path", path),
				zap.String("remote_ip", ctx.RemoteIP().String()))
			writeError(ctx, fasthttp.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
	}

	c, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	rt.serve(ctx, c, creds)
}

func (h *Handler) healthz(ctx *fasthttp.RequestCtx, _ context.Context, _ upstream.Credentials) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) metricsScrape(ctx *fasthttp.RequestCtx, _ context.Context, _ upstream.Credentials) {
	h.scrape(ctx)
}

func (h *Handler) recruitment(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	period, ok := parsePeriod(ctx)
	if !ok {
		return
	}
	writeData(ctx, h.svc.RecruitmentSummary(c, creds, period))
}

func (h *Handler) transfers(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	summary, err := h.svc.TransferSummary(c, creds)
	if err != nil {
		h.log.Error("Transfer summary failed",
			zap.String("request_id", creds.RequestID),
			zap.Error(err))
		status := fasthttp.StatusBadGateway
		if upstream.IsTimeout(err) {
			status = fasthttp.StatusGatewayTimeout
		}
		writeError(ctx, status, "Transfer history is temporarily unavailable")
		return
	}
	writeData(ctx, summary)
}

func (h *Handler) wallet(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	writeData(ctx, h.svc.WalletSummary(c, creds))
}

func (h *Handler) incentives(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	writeData(ctx, h.svc.IncentiveSummary(c, creds))
}

func (h *Handler) permissions(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	writeData(ctx, h.svc.Permissions(c, creds))
}

func (h *Handler) dashboard(ctx *fasthttp.RequestCtx, c context.Context, creds upstream.Credentials) {
	period, ok := parsePeriod(ctx)
	if !ok {
		return
	}
	writeData(ctx, h.svc.Dashboard(c, creds, period))
}

func parsePeriod(ctx *fasthttp.RequestCtx) (series.Period, bool) {
	period, err := series.ParsePeriod(string(ctx.QueryArgs().Peek("period")))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid period: use daily, monthly or yearly")
		return "", false
	}
	return period, true
}

func writeData(ctx *fasthttp.RequestCtx, data any) {
	writeJSON(ctx, fasthttp.StatusOK, model.SuccessResponse{Data: data})
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, model.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(fasthttp.StatusMessage(fasthttp.StatusInternalServerError), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
