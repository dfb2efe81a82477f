package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
)

type recordingSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventArbDetected, " "}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), EventError, "t", "m"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), EventArbDetected, "t", "m"))
	require.NoError(t, n.NotifyAll(context.Background(), "all", "m"))
	assert.Equal(t, []string{"t", "all"}, s.titles)
}

func TestNotifierEmptyFilterAllowsAll(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	assert.True(t, n.Allows("anything"))
	assert.False(t, n.Enabled())
}

func TestNotifierJoinsSenderErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingSender{name: "ok"}
	bad := &recordingSender{name: "bad", err: boom}
	n := NewNotifier([]Sender{bad, ok}, nil, discardLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, ok.titles, 1, "a failing sender must not block the others")
}

func TestDiscordSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscordSender(srv.URL).Send(context.Background(), "Title", "body"))
	assert.Equal(t, "**Title**\nbody", got["content"])
}

func TestTelegramSender(t *testing.T) {
	var (
		path string
		got  map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "42").WithAPIBase(srv.URL + "/")
	require.NoError(t, s.Send(context.Background(), "Title", "body"))
	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "*Title*\nbody", got["text"])
}

func TestSenderReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func opp(symbol string, c domain.Confidence) domain.Opportunity {
	return domain.Opportunity{
		AssetSymbol: symbol, BuyVenue: "Jupiter", BuyPrice: 1, SellVenue: "Orca", SellPrice: 1.02,
		EstimatedProfit: 19.5, EstimatedProfitPercent: 1.95, Confidence: c,
	}
}

func TestOpportunityAlerterFiltersByConfidence(t *testing.T) {
	s := &recordingSender{name: "rec"}
	a := NewOpportunityAlerter(NewNotifier([]Sender{s}, []string{EventArbDetected}, discardLogger()), "medium")

	opps := []domain.Opportunity{
		opp("SOL", domain.ConfidenceHigh),
		opp("BONK", domain.ConfidenceLow),
		opp("JUP", domain.ConfidenceMedium),
	}
	require.NoError(t, a.AlertOpportunities(context.Background(), opps))
	require.Len(t, s.titles, 1)
	assert.Equal(t, "2 arbitrage opportunities", s.titles[0])
	assert.Contains(t, s.bodies[0], "SOL: buy Jupiter")
	assert.Contains(t, s.bodies[0], "JUP:")
	assert.NotContains(t, s.bodies[0], "BONK")
}

func TestOpportunityAlerterSkipsWhenNothingQualifies(t *testing.T) {
	s := &recordingSender{name: "rec"}
	a := NewOpportunityAlerter(NewNotifier([]Sender{s}, nil, discardLogger()), "bogus")

	require.NoError(t, a.AlertOpportunities(context.Background(), []domain.Opportunity{opp("SOL", domain.ConfidenceMedium)}))
	assert.Empty(t, s.titles, "invalid level falls back to high")

	var nilAlerter = NewOpportunityAlerter(nil, "low")
	assert.NoError(t, nilAlerter.AlertOpportunities(context.Background(), []domain.Opportunity{opp("SOL", domain.ConfidenceHigh)}))
}

func TestFormatOpportunitiesTruncates(t *testing.T) {
	opps := make([]domain.Opportunity, maxAlertLines+3)
	for i := range opps {
		opps[i] = opp("SOL", domain.ConfidenceHigh)
	}
	out := FormatOpportunities(opps)
	assert.Contains(t, out, "... and 3 more")
	assert.Contains(t, out, "profit $19.50 (1.95%) [high]")
}
