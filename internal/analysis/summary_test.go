package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"estateinsight/server/internal/models"
)

// MockGenerator is a mock implementation of the Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, query string, records []models.Record) (string, error) {
	args := m.Called(ctx, query, records)
	return args.String(0), args.Error(1)
}

var wakad2023 = []models.Record{
	{
		FinalLocation:       "Wakad",
		Year:                2023,
		TotalSalesIGR:       5_000_000,
		TotalSoldIGR:        120,
		FlatWeightedAvgRate: 6500,
	},
}

func TestTemplateSummary(t *testing.T) {
	summary := TemplateSummary(wakad2023)

	assert.Contains(t, summary, "## Real Estate Analysis Report")
	assert.Contains(t, summary, "**Analysis for**: Wakad")
	assert.Contains(t, summary, "**Period**: 2023-2023")
	assert.Contains(t, summary, "**Total Transactions**: 1 records")
	assert.Contains(t, summary, "shows stable trends")
	assert.Contains(t, summary, "₹6,500 per sqft")
	assert.Contains(t, summary, "₹5,000,000")
	assert.Contains(t, summary, "across 120 units sold")
	assert.Contains(t, summary, "**Location Analysis**: Wakad demonstrate")
}

func TestTemplateSummary_MultipleLocationsAndYears(t *testing.T) {
	records := []models.Record{
		{FinalLocation: "Wakad", Year: 2024, FlatWeightedAvgRate: 7000, TotalSalesIGR: 1_000_000, TotalSoldIGR: 10},
		{FinalLocation: "Aundh", Year: 2021, FlatWeightedAvgRate: 0, TotalSalesIGR: 2_000_000, TotalSoldIGR: 20},
		{FinalLocation: "Wakad", Year: 2022, FlatWeightedAvgRate: 9000, TotalSalesIGR: 0, TotalSoldIGR: 0},
	}

	summary := TemplateSummary(records)

	assert.Contains(t, summary, "**Analysis for**: Wakad, Aundh")
	assert.Contains(t, summary, "**Period**: 2021-2024")
	assert.Contains(t, summary, "shows growth trends")
	// zero rates are excluded from the average
	assert.Contains(t, summary, "₹8,000 per sqft")
	assert.Contains(t, summary, "₹3,000,000")
	assert.Contains(t, summary, "across 30 units sold")
	assert.Contains(t, summary, "Multiple locations demonstrate")
}

func TestTemplateSummary_Empty(t *testing.T) {
	assert.Equal(t, "No data available for analysis.", TemplateSummary(nil))
}

func TestSummarizer_WithoutGenerator(t *testing.T) {
	s := NewSummarizer(nil, time.Second, logrus.New())

	assert.False(t, s.NarrativeEnabled())
	assert.Equal(t, TemplateSummary(wakad2023), s.Summarize(context.Background(), "Wakad 2023", wakad2023))
}

func TestSummarizer_UsesGeneratorText(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, "Wakad 2023", wakad2023).Return("Wakad is heating up.", nil).Once()

	s := NewSummarizer(gen, time.Second, logrus.New())

	assert.True(t, s.NarrativeEnabled())
	assert.Equal(t, "Wakad is heating up.", s.Summarize(context.Background(), "Wakad 2023", wakad2023))
	gen.AssertExpectations(t)
}

func TestSummarizer_FallsBackOnError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "Unavailable", err: ErrUnavailable},
		{name: "Provider error", err: &ProviderError{Provider: "openai", StatusCode: 429, Err: errors.New("quota exceeded")}},
		{name: "Context deadline", err: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockGenerator{}
			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", tt.err).Once()

			s := NewSummarizer(gen, time.Second, logrus.New())
			summary := s.Summarize(context.Background(), "Wakad 2023", wakad2023)

			assert.Equal(t, TemplateSummary(wakad2023), summary)
			gen.AssertExpectations(t)
		})
	}
}

func TestSummarizer_AppliesTimeout(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything, mock.Anything).Return("ok", nil).Once()

	s := NewSummarizer(gen, 5*time.Second, logrus.New())
	assert.Equal(t, "ok", s.Summarize(context.Background(), "q", wakad2023))
	gen.AssertExpectations(t)
}
