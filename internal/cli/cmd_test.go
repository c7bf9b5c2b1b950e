package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"incentive-engine/internal/config"
	"incentive-engine/internal/model"
	"incentive-engine/internal/series"
	"incentive-engine/internal/upstream"
)

type fakeViews struct {
	creds  upstream.Credentials
	period series.Period
}

func (f *fakeViews) RecruitmentSummary(_ context.Context, creds upstream.Credentials, p series.Period) model.RecruitmentSummary {
	f.creds, f.period = creds, p
	return model.RecruitmentSummary{Source: model.SourceNone, Period: string(p)}
}

func (f *fakeViews) TransferSummary(context.Context, upstream.Credentials) (model.TransferSummary, error) {
	return model.TransferSummary{}, &upstream.TransportError{Service: upstream.ServiceAccount, Err: errors.New("refused")}
}

func (f *fakeViews) WalletSummary(_ context.Context, creds upstream.Credentials) model.WalletSummary {
	f.creds = creds
	return model.WalletSummary{CurrentBalance: decimal.NewFromInt(12), Currency: "USDT"}
}

func (f *fakeViews) IncentiveSummary(context.Context, upstream.Credentials) model.IncentiveSummary {
	return model.IncentiveSummary{}
}

func (f *fakeViews) Permissions(context.Context, upstream.Credentials) model.TierPermission {
	return model.TierPermission{Layout: model.LayoutStandard}
}

func (f *fakeViews) Dashboard(_ context.Context, _ upstream.Credentials, p series.Period) model.DashboardView {
	f.period = p
	return model.DashboardView{}
}

func testApp(views *fakeViews) *App {
	return &App{
		Config: &config.Config{
			Port:      "0",
			Upstream:  config.Upstream{Timeout: time.Second},
			RateLimit: config.RateLimit{RequestsPerSecond: 10, Burst: 10},
		},
		Views: views,
	}
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSummaryWallet(t *testing.T) {
	views := &fakeViews{}
	out, err := executeCmd(t, testApp(views), "summary", "wallet", "--token", "Bearer abc")
	require.NoError(t, err)

	var got model.WalletSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "12", got.CurrentBalance.String())
	assert.Equal(t, "Bearer abc", views.creds.Token)
	assert.NotEmpty(t, views.creds.RequestID)
}

func TestSummaryPeriodFlag(t *testing.T) {
	views := &fakeViews{}
	_, err := executeCmd(t, testApp(views), "summary", "recruitment", "--token", "t", "--period", "yearly")
	require.NoError(t, err)
	assert.Equal(t, series.Yearly, views.period)

	_, err = executeCmd(t, testApp(views), "summary", "dashboard", "--token", "t", "--period", "hourly")
	assert.Error(t, err)
}

func TestSummaryErrors(t *testing.T) {
	_, err := executeCmd(t, testApp(&fakeViews{}), "summary", "balances", "--token", "t")
	assert.ErrorContains(t, err, "unknown summary")

	_, err = executeCmd(t, testApp(&fakeViews{}), "summary", "wallet")
	assert.Error(t, err, "token is required")

	_, err = executeCmd(t, testApp(&fakeViews{}), "summary", "transfers", "--token", "t")
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestServeUntilCancelled(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, testApp(&fakeViews{})) }()

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	status, body, err := client.GetTimeout(nil, "http://engine.test/healthz", time.Second)
	require.NoError(t, err)
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
