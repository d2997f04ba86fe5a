package analysis

import "estateinsight/server/internal/models"

// ChartSeries holds the parallel per-year sequences of one location.
// Sales are in millions.
type ChartSeries struct {
	Years  []int     `json:"years"`
	Prices []float64 `json:"prices"`
	Demand []int     `json:"demand"`
	Sales  []float64 `json:"sales"`
}

// ChartData maps a location name to its series
type ChartData map[string]*ChartSeries

// BuildChartData groups records by location keeping the first record seen
// for each year. It returns nil for an empty result set.
func BuildChartData(records []models.Record) ChartData {
	if len(records) == 0 {
		return nil
	}

	chart := make(ChartData)
	seen := make(map[string]map[int]bool)

	for _, r := range records {
		series, ok := chart[r.FinalLocation]
		if !ok {
			series = &ChartSeries{
				Years:  []int{},
				Prices: []float64{},
				Demand: []int{},
				Sales:  []float64{},
			}
			chart[r.FinalLocation] = series
			seen[r.FinalLocation] = make(map[int]bool)
		}

		if seen[r.FinalLocation][r.Year] {
			continue
		}
		seen[r.FinalLocation][r.Year] = true

		series.Years = append(series.Years, r.Year)
		series.Prices = append(series.Prices, r.FlatWeightedAvgRate)
		series.Demand = append(series.Demand, r.TotalSoldIGR)
		series.Sales = append(series.Sales, r.TotalSalesIGR/1_000_000)
	}

	return chart
}
