package upstream

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"incentive-engine/internal/metrics"
)

const testBaseURL = "http://upstream.test"

// fakeService serves handler on an in-memory listener and returns Options
// whose dialer reaches it.
func fakeService(t *testing.T, handler fasthttp.RequestHandler) Options {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return Options{
		Timeout: time.Second,
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func respond(status int, body string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(status)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	}
}

func TestFetchBalances(t *testing.T) {
	var gotAuth, gotRequestID, gotPath string
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		gotAuth = string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
		gotRequestID = string(ctx.Request.Header.Peek(HeaderRequestID))
		gotPath = string(ctx.Path())
		ctx.SetBodyString(`{"data":{"rebate":{"balance":"12.50","currency":"USDT"},"current":{"balance":100}}}`)
	})

	c := NewAccountClient(testBaseURL+"/", opts)
	got, err := c.FetchBalances(context.Background(), Credentials{Token: "Bearer abc", RequestID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "/account/balances", gotPath)
	assert.Equal(t, "12.5", got.RebateBalance.String())
	assert.Equal(t, "100", got.CurrentBalance.String())
	assert.Equal(t, "USDT", got.Currency)
}

func TestFetchDownstreamChartSendsPeriod(t *testing.T) {
	var gotPeriod string
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		gotPeriod = string(ctx.QueryArgs().Peek("period"))
		ctx.SetBodyString(`{"data":[{"date":"2025-03","value":4},{"date":"2025-04","value":6}]}`)
	})

	points, err := NewDashboardClient(testBaseURL, opts).FetchDownstreamChart(context.Background(), Credentials{}, "monthly")
	require.NoError(t, err)
	assert.Equal(t, "monthly", gotPeriod)
	require.Len(t, points, 2)
	assert.Equal(t, "2025-04", points[1].Date)
	assert.Equal(t, 6.0, points[1].Value)
}

func TestFetchIncentivesWithAchievement(t *testing.T) {
	opts := fakeService(t, respond(200, `{"data":{
		"directReferralFee": 10,
		"depositRebate": "2.25",
		"milestoneBonus": 999,
		"milestoneAchievement": {
			"activatedUsers": 80,
			"targetUsers": 80,
			"completeAt": "2025-03-01",
			"milestones": [
				{"months": 4, "reward": 400, "date": "2025-05-01"},
				{"months": 3, "reward": 500, "date": "2025-04-01T00:00:00Z"}
			]
		},
		"somethingNew": {"ignored": true}
	}}`))

	got, err := NewIncentiveClient(testBaseURL, opts).FetchIncentives(context.Background(), Credentials{})
	require.NoError(t, err)

	assert.Equal(t, "10", got.DirectReferralFee.String())
	assert.Equal(t, "2.25", got.DepositRebate.String())
	assert.True(t, got.PerformanceBonus.IsZero())
	require.NotNil(t, got.Achievement)
	assert.Equal(t, 80, got.Achievement.ActivatedUsers)
	require.NotNil(t, got.Achievement.CompleteAt)
	require.Len(t, got.Achievement.Milestones, 2)
	require.NotNil(t, got.Achievement.Milestones[1].DueDate)
	assert.Equal(t, 2025, got.Achievement.Milestones[1].DueDate.Year())
}

func TestFetchIncentivesWithoutAchievement(t *testing.T) {
	opts := fakeService(t, respond(200, `{"data":{"totalIncentive":12}}`))

	got, err := NewIncentiveClient(testBaseURL, opts).FetchIncentives(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Nil(t, got.Achievement)
	assert.Equal(t, "12", got.TotalIncentive.String())
}

func TestFetchProfile(t *testing.T) {
	opts := fakeService(t, respond(200, `{"data":{"agentId":"a-1","tierPriority":2,"referralCode":"XY"}}`))

	got, err := NewResellerClient(testBaseURL, opts).FetchProfile(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.AgentID)
	assert.Equal(t, 2, got.TierPriority)
	assert.Equal(t, "XY", got.ReferralCode)
}

func TestErrorStatusIsTransportError(t *testing.T) {
	opts := fakeService(t, respond(503, `{"message":"down"}`))

	_, err := NewDashboardClient(testBaseURL, opts).FetchDashboard(context.Background(), Credentials{})
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ServiceDashboard, te.Service)
	assert.Equal(t, 503, te.Status)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "down")
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `<html>`,
		"no data":      `{"status":"ok"}`,
		"null data":    `{"data":null}`,
		"wrong shapes": `{"data":{"referral":{"directReferred":"many"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			opts := fakeService(t, respond(200, body))
			_, err := NewDashboardClient(testBaseURL, opts).FetchDashboard(context.Background(), Credentials{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestCancelledContextSkipsCall(t *testing.T) {
	called := false
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetBodyString(`{"data":{}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAccountClient(testBaseURL, opts).FetchBalances(ctx, Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		calls++
		ctx.SetStatusCode(500)
	})
	opts.MaxFailures = 2
	opts.OpenTimeout = time.Minute
	opts.Metrics = metrics.New()

	c := NewAccountClient(testBaseURL, opts)
	for i := 0; i < 2; i++ {
		_, err := c.FetchBalances(context.Background(), Credentials{})
		require.Error(t, err)
	}

	_, err := c.FetchBalances(context.Background(), Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 2, calls)

	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.UpstreamRequests.WithLabelValues(ServiceAccount, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.UpstreamRequests.WithLabelValues(ServiceAccount, "rejected")))
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	opts := fakeService(t, respond(401, `{"message":"unauthorized"}`))
	opts.MaxFailures = 1

	c := NewAccountClient(testBaseURL, opts)
	for i := 0; i < 3; i++ {
		_, err := c.FetchBalances(context.Background(), Credentials{})
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, 401, te.Status)
	}
}

func TestCallerDeadlineIsReportedAsDeadline(t *testing.T) {
	var calls atomic.Int32
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		ctx.SetBodyString(`{"data":{"current":{"balance":1}}}`)
	})
	opts.MaxFailures = 1
	opts.Metrics = metrics.New()

	c := NewAccountClient(testBaseURL, opts)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchBalances(ctx, Credentials{})
	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.UpstreamRequests.WithLabelValues(ServiceAccount, "cancelled")))

	// the caller's deadline does not count against the service
	got, err := c.FetchBalances(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "1", got.CurrentBalance.String())
}

func TestClientTimeoutTripsBreaker(t *testing.T) {
	opts := fakeService(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetBodyString(`{"data":{}}`)
	})
	opts.Timeout = 50 * time.Millisecond
	opts.MaxFailures = 1
	opts.OpenTimeout = time.Minute

	c := NewAccountClient(testBaseURL, opts)
	_, err := c.FetchBalances(context.Background(), Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fasthttp.ErrTimeout), "got %v", err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsTimeout(err))

	_, err = c.FetchBalances(context.Background(), Credentials{})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}
