package importer

import (
	"math"
	"strconv"
	"strings"

	"estateinsight/server/internal/models"
)

const (
	defaultLocation = "Unknown"
	defaultYear     = 2020
)

// column binds a record field to the headers it may appear under. The
// canonical name comes first.
type column struct {
	headers []string
	apply   func(r *models.Record, raw string)
}

func stringColumn(target func(*models.Record) *string, headers ...string) column {
	return column{headers: headers, apply: func(r *models.Record, raw string) {
		*target(r) = raw
	}}
}

func intColumn(target func(*models.Record) *int, headers ...string) column {
	return column{headers: headers, apply: func(r *models.Record, raw string) {
		if v, ok := parseNumber(raw); ok && v >= math.MinInt32 && v <= math.MaxInt32 {
			*target(r) = int(v)
		}
	}}
}

func floatColumn(target func(*models.Record) *float64, headers ...string) column {
	return column{headers: headers, apply: func(r *models.Record, raw string) {
		if v, ok := parseNumber(raw); ok {
			*target(r) = v
		}
	}}
}

var columns = []column{
	stringColumn(func(r *models.Record) *string { return &r.FinalLocation }, "final_location", "final location"),
	intColumn(func(r *models.Record) *int { return &r.Year }, "year"),
	stringColumn(func(r *models.Record) *string { return &r.City }, "city"),
	floatColumn(func(r *models.Record) *float64 { return &r.LocLat }, "loc_lat"),
	floatColumn(func(r *models.Record) *float64 { return &r.LocLng }, "loc_lng"),
	floatColumn(func(r *models.Record) *float64 { return &r.TotalSalesIGR }, "total_sales_igr", "total_sales - igr"),
	intColumn(func(r *models.Record) *int { return &r.TotalSoldIGR }, "total_sold_igr", "total sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.FlatSoldIGR }, "flat_sold_igr", "flat_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.OfficeSoldIGR }, "office_sold_igr", "office_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.OthersSoldIGR }, "others_sold_igr", "others_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.ShopSoldIGR }, "shop_sold_igr", "shop_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.CommercialSoldIGR }, "commercial_sold_igr", "commercial_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.OtherSoldIGR }, "other_sold_igr", "other_sold - igr"),
	intColumn(func(r *models.Record) *int { return &r.ResidentialSoldIGR }, "residential_sold_igr", "residential_sold - igr"),
	floatColumn(func(r *models.Record) *float64 { return &r.FlatWeightedAvgRate }, "flat_weighted_avg_rate", "flat - weighted average rate"),
	floatColumn(func(r *models.Record) *float64 { return &r.OfficeWeightedAvgRate }, "office_weighted_avg_rate", "office - weighted average rate"),
	floatColumn(func(r *models.Record) *float64 { return &r.OthersWeightedAvgRate }, "others_weighted_avg_rate", "others - weighted average rate"),
	floatColumn(func(r *models.Record) *float64 { return &r.ShopWeightedAvgRate }, "shop_weighted_avg_rate", "shop - weighted average rate"),
	intColumn(func(r *models.Record) *int { return &r.TotalUnits }, "total_units", "total units"),
	floatColumn(func(r *models.Record) *float64 { return &r.TotalCarpetArea }, "total_carpet_area", "total carpet area supplied (sqft)"),
	intColumn(func(r *models.Record) *int { return &r.FlatTotal }, "flat_total", "flat total"),
	intColumn(func(r *models.Record) *int { return &r.ShopTotal }, "shop_total", "shop total"),
	intColumn(func(r *models.Record) *int { return &r.OfficeTotal }, "office_total", "office total"),
	intColumn(func(r *models.Record) *int { return &r.OthersTotal }, "others_total", "others total"),
}

// Mapping resolves the columns of one header row
type Mapping struct {
	positions []int // position of columns[i] in a row, -1 when absent
	city      string
}

// NewMapping matches header cells against the column table. Matching trims
// whitespace and ignores case; the first header cell with a given name is
// used.
func NewMapping(header []string, city string) *Mapping {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, ok := index[name]; !ok && name != "" {
			index[name] = i
		}
	}

	m := &Mapping{positions: make([]int, len(columns)), city: city}
	for i, col := range columns {
		m.positions[i] = -1
		for _, h := range col.headers {
			if pos, ok := index[h]; ok {
				m.positions[i] = pos
				break
			}
		}
	}
	return m
}

// Matched returns the number of recognized columns
func (m *Mapping) Matched() int {
	n := 0
	for _, pos := range m.positions {
		if pos >= 0 {
			n++
		}
	}
	return n
}

// Record builds a record from a data row, applying defaults to blank,
// absent or unparseable cells.
func (m *Mapping) Record(row []string) (*models.Record, error) {
	if isBlankRow(row) {
		return nil, ErrBlankRow
	}

	r := &models.Record{
		FinalLocation: defaultLocation,
		Year:          defaultYear,
		City:          m.city,
	}
	for i, col := range columns {
		pos := m.positions[i]
		if pos < 0 || pos >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[pos])
		if isBlank(raw) {
			continue
		}
		col.apply(r, raw)
	}
	return r, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isBlank(raw string) bool {
	return raw == "" || strings.EqualFold(raw, "nan")
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if !isBlank(strings.TrimSpace(cell)) {
			return false
		}
	}
	return true
}

// parseNumber reads a decimal number, ignoring thousands separators
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
