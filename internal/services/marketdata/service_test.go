package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/models"
)

// --- Mocks ---

type mockFeed struct {
	quote   *models.Quote
	profile *models.CompanyProfile
	candles *models.CandleSeries
	err     error
}

func (m *mockFeed) GetQuote(_ context.Context, _ string) (*models.Quote, error) {
	return m.quote, m.err
}

func (m *mockFeed) GetProfile(_ context.Context, _ string) (*models.CompanyProfile, error) {
	return m.profile, m.err
}

func (m *mockFeed) GetCandles(_ context.Context, _, _ string, _, _ time.Time) (*models.CandleSeries, error) {
	return m.candles, m.err
}

// --- Tests ---

func TestGetQuote_UpstreamSuccess(t *testing.T) {
	feed := &mockFeed{quote: &models.Quote{Symbol: "AAPL", Current: 228.5, Source: models.SourceFinnhub}}
	svc := NewService(feed, common.NewSilentLogger())

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 228.5, quote.Current)
	assert.Equal(t, "finnhub", quote.Source)
}

func TestGetQuote_UpstreamFailureFallsBack(t *testing.T) {
	feed := &mockFeed{err: errors.New("connection refused")}
	svc := NewService(feed, common.NewSilentLogger())

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err, "upstream failure must never surface")
	assert.Equal(t, "synthetic", quote.Source)
	assert.Greater(t, quote.Current, 0.0)
}

func TestGetQuote_NilFeedServesSynthetic(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "synthetic", quote.Source)
}

func TestGetQuote_RepeatedFailuresShareBaseline(t *testing.T) {
	feed := &mockFeed{err: errors.New("down")}
	svc := NewService(feed, common.NewSilentLogger())

	first, err := svc.GetQuote(context.Background(), "XYZ")
	require.NoError(t, err)
	second, err := svc.GetQuote(context.Background(), "XYZ")
	require.NoError(t, err)

	assert.Equal(t, first.PreviousClose, second.PreviousClose,
		"same symbol must start from the same synthetic baseline")
}

func TestGetProfile_UpstreamFailureFallsBack(t *testing.T) {
	feed := &mockFeed{err: errors.New("down")}
	svc := NewService(feed, common.NewSilentLogger())

	profile, err := svc.GetProfile(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "ABC Inc.", profile.Name)
	assert.Equal(t, "synthetic", profile.Source)
}

func TestGetHistory_DoubleFailureSameFirstPoint(t *testing.T) {
	feed := &mockFeed{err: errors.New("down")}
	svc := NewService(feed, common.NewSilentLogger())

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 5)

	first, err := svc.GetHistory(context.Background(), "ABC", "D", from, to)
	require.NoError(t, err)
	second, err := svc.GetHistory(context.Background(), "ABC", "D", from, to)
	require.NoError(t, err)

	require.NotEmpty(t, first.Candles)
	require.NotEmpty(t, second.Candles)
	assert.Equal(t, first.Candles[0].Close, second.Candles[0].Close)
}

func TestRefreshQuotes_IsolatedFailures(t *testing.T) {
	// Upstream always fails; every symbol must still resolve.
	feed := &mockFeed{err: errors.New("down")}
	svc := NewService(feed, common.NewSilentLogger())

	results := svc.RefreshQuotes(context.Background(), []string{"AAPL", "MSFT", "TSLA", "AAPL", ""})

	require.Len(t, results, 3, "duplicates and empties are dropped")
	for symbol, quote := range results {
		require.NotNil(t, quote, symbol)
		assert.Equal(t, symbol, quote.Symbol)
		assert.Equal(t, "synthetic", quote.Source)
	}
}
