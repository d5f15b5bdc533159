package advisor

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

type mockAdvisor struct {
	advice *models.Advice
	err    error
}

func (m *mockAdvisor) AnalyzePosition(_ context.Context, _ string, _, _ float64, _ string) (*models.Advice, error) {
	return m.advice, m.err
}

func TestAnalyzeSuccess(t *testing.T) {
	client := &mockAdvisor{
		advice: &models.Advice{Action: models.AdviceBuy, Reasoning: "undervalued", Confidence: 82},
	}
	svc := NewService(client, common.NewSilentLogger())

	advice := svc.Analyze(context.Background(), "AAPL", 100, 120, "Technology")
	require.NotNil(t, advice)
	assert.Equal(t, models.AdviceBuy, advice.Action)
	assert.Equal(t, "undervalued", advice.Reasoning)
	assert.Equal(t, 82, advice.Confidence)
	assert.False(t, advice.UpdatedAt.IsZero())
}

func TestAnalyzeNoClientYieldsUnknown(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())

	advice := svc.Analyze(context.Background(), "AAPL", 100, 120, "Technology")
	require.NotNil(t, advice)
	assert.Equal(t, models.AdviceUnknown, advice.Action)
	assert.Equal(t, 0, advice.Confidence)
}

func TestAnalyzeFailureYieldsHold(t *testing.T) {
	client := &mockAdvisor{err: errors.New("quota exceeded")}
	svc := NewService(client, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	advice := svc.Analyze(context.Background(), "AAPL", 100, 120, "Technology")
	require.NotNil(t, advice)
	assert.Equal(t, models.AdviceHold, advice.Action)
	assert.Contains(t, advice.Reasoning, "Holding is safer")
	assert.Equal(t, 0, advice.Confidence)
	assert.Equal(t, 2026, advice.UpdatedAt.Year())
}
