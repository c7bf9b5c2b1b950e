// Package aggregator merges upstream payloads into the dashboard view-models.
//
// Each operation fans out to its sources concurrently and waits for every
// call to settle before building a result. Recruitment, wallet and incentive
// views degrade to zero/default values when a source is unavailable; the
// transfer listing returns the error instead, since a silently empty list of
// money movements would mislead.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"incentive-engine/internal/metrics"
	"incentive-engine/internal/model"
	"incentive-engine/internal/permission"
	"incentive-engine/internal/upstream"
)

var tracer = otel.Tracer("incentive-engine/aggregator")

type AccountReader interface {
	FetchBalances(ctx context.Context, creds upstream.Credentials) (model.AccountBalances, error)
}

type DashboardReader interface {
	FetchDashboard(ctx context.Context, creds upstream.Credentials) (model.DashboardSnapshot, error)
	FetchDownstreamChart(ctx context.Context, creds upstream.Credentials, period string) ([]model.SeriesPoint, error)
}

type IncentiveReader interface {
	FetchIncentives(ctx context.Context, creds upstream.Credentials) (model.IncentiveSnapshot, error)
}

type ResellerReader interface {
	FetchProfile(ctx context.Context, creds upstream.Credentials) (model.ResellerProfile, error)
}

// Fallback is the schedule shape used when the incentive service cannot
// supply one.
type Fallback struct {
	Target int
	Ladder []model.Milestone
}

type Options struct {
	Accounts   AccountReader
	Dashboard  DashboardReader
	Incentives IncentiveReader
	Resellers  ResellerReader
	Policy     permission.Policy
	Fallback   Fallback
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Aggregator struct {
	accounts   AccountReader
	dashboard  DashboardReader
	incentives IncentiveReader
	resellers  ResellerReader
	policy     permission.Policy
	fallback   Fallback
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

func New(opts Options) *Aggregator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		accounts:   opts.Accounts,
		dashboard:  opts.Dashboard,
		incentives: opts.Incentives,
		resellers:  opts.Resellers,
		policy:     opts.Policy,
		fallback:   opts.Fallback,
		metrics:    opts.Metrics,
		log:        log,
		now:        now,
	}
}

// degraded logs the error that forced a fallback and counts it.
func (a *Aggregator) degraded(creds upstream.Credentials, view, source string, err error) {
	a.log.Warn("Serving degraded view",
		zap.String("view", view),
		zap.String("source", source),
		zap.String("request_id", creds.RequestID),
		zap.Error(err))
	a.metrics.RecordDegraded(view, source)
}

// settle runs one fetch and turns a panic in the reader into an error, so
// a misbehaving source degrades its view instead of the whole process.
func settle[T any](fetch func() (T, error)) (res upstream.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = upstream.Result[T]{Err: fmt.Errorf("reader panicked: %v", r)}
		}
	}()
	return upstream.Capture(fetch())
}

// goSettle runs fetch on g and stores its settled result in dst. The
// goroutine always returns nil so the group waits for every source.
func goSettle[T any](g *errgroup.Group, dst *upstream.Result[T], fetch func() (T, error)) {
	g.Go(func() error {
		*dst = settle(fetch)
		return nil
	})
}
