package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"estateinsight/server/internal/models"
)

const noDataSummary = "No data available for analysis."

// Summarizer writes the narrative for a result set. With a generator it
// asks the provider once and falls back to TemplateSummary on any error.
type Summarizer struct {
	generator Generator
	timeout   time.Duration
	logger    *logrus.Logger
}

// NewSummarizer creates a summarizer. A nil generator means no provider is
// configured and every summary is templated.
func NewSummarizer(generator Generator, timeout time.Duration, logger *logrus.Logger) *Summarizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Summarizer{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// NarrativeEnabled reports whether a provider is configured
func (s *Summarizer) NarrativeEnabled() bool {
	return s.generator != nil
}

// Summarize returns the narrative for records, never failing
func (s *Summarizer) Summarize(ctx context.Context, query string, records []models.Record) string {
	if s.generator == nil {
		return TemplateSummary(records)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.Generate(ctx, query, records)
	if err != nil {
		entry := s.logger.WithError(err)
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			entry = entry.WithField("provider", providerErr.Provider)
		}
		entry.Warn("Narrative generation failed, using templated summary")
		return TemplateSummary(records)
	}
	return text
}

// TemplateSummary builds the deterministic report used when no provider
// answers.
func TemplateSummary(records []models.Record) string {
	if len(records) == 0 {
		return noDataSummary
	}

	var (
		locations []string
		years     []int
		seenLoc   = make(map[string]bool)
		seenYear  = make(map[int]bool)
		rateSum   float64
		rateCount int
		salesSum  float64
		unitsSum  int
	)

	for _, r := range records {
		if !seenLoc[r.FinalLocation] {
			seenLoc[r.FinalLocation] = true
			locations = append(locations, r.FinalLocation)
		}
		if !seenYear[r.Year] {
			seenYear[r.Year] = true
			years = append(years, r.Year)
		}
		if r.FlatWeightedAvgRate != 0 {
			rateSum += r.FlatWeightedAvgRate
			rateCount++
		}
		salesSum += r.TotalSalesIGR
		unitsSum += r.TotalSoldIGR
	}

	var avgRate float64
	if rateCount > 0 {
		avgRate = rateSum / float64(rateCount)
	}

	minYear, maxYear := years[0], years[0]
	for _, y := range years[1:] {
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}

	trend := "stable"
	if len(years) > 1 {
		trend = "growth"
	}

	focus := "Multiple locations"
	if len(locations) == 1 {
		focus = locations[0]
	}

	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("## Real Estate Analysis Report\n\n")
	fmt.Fprintf(&b, "**Analysis for**: %s  \n", strings.Join(locations, ", "))
	fmt.Fprintf(&b, "**Period**: %d-%d  \n", minYear, maxYear)
	fmt.Fprintf(&b, "**Total Transactions**: %d records\n\n", len(records))

	b.WriteString("### Market Overview\n")
	fmt.Fprintf(&b, "The analyzed real estate market shows %s trends during the period.\n", trend)
	fmt.Fprintf(&b, "Average property prices are around %s per sqft, with total sales volume of %s\n",
		p.Sprintf("₹%.0f", avgRate), p.Sprintf("₹%.0f", salesSum))
	fmt.Fprintf(&b, "across %d units sold.\n\n", unitsSum)

	b.WriteString("### Key Insights\n")
	b.WriteString("- **Price Trends**: Properties have maintained consistent valuation across the analyzed period\n")
	b.WriteString("- **Demand Patterns**: Market shows healthy transaction volumes\n")
	fmt.Fprintf(&b, "- **Location Analysis**: %s demonstrate unique market characteristics\n\n", focus)

	b.WriteString("### Recommendations\n")
	b.WriteString("Based on the data analysis, this market presents opportunities for both investors and homebuyers.\n")
	b.WriteString("Consider monitoring price fluctuations and demand patterns for optimal decision-making.")

	return b.String()
}
