package models

// Record is one real-estate market snapshot for a location in a given year.
// (FinalLocation, Year) is unique.
type Record struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	FinalLocation string  `json:"final_location" gorm:"column:final_location;size:255;not null;uniqueIndex:idx_location_year"`
	Year          int     `json:"year" gorm:"column:year;not null;uniqueIndex:idx_location_year"`
	City          string  `json:"city" gorm:"column:city;size:100"`
	LocLat        float64 `json:"loc_lat" gorm:"column:loc_lat"`
	LocLng        float64 `json:"loc_lng" gorm:"column:loc_lng"`

	TotalSalesIGR float64 `json:"total_sales_igr" gorm:"column:total_sales_igr"`

	// Units sold by category
	TotalSoldIGR       int `json:"total_sold_igr" gorm:"column:total_sold_igr"`
	FlatSoldIGR        int `json:"flat_sold_igr" gorm:"column:flat_sold_igr"`
	OfficeSoldIGR      int `json:"office_sold_igr" gorm:"column:office_sold_igr"`
	OthersSoldIGR      int `json:"others_sold_igr" gorm:"column:others_sold_igr"`
	ShopSoldIGR        int `json:"shop_sold_igr" gorm:"column:shop_sold_igr"`
	CommercialSoldIGR  int `json:"commercial_sold_igr" gorm:"column:commercial_sold_igr"`
	OtherSoldIGR       int `json:"other_sold_igr" gorm:"column:other_sold_igr"`
	ResidentialSoldIGR int `json:"residential_sold_igr" gorm:"column:residential_sold_igr"`

	// Price per unit area, volume weighted
	FlatWeightedAvgRate   float64 `json:"flat_weighted_avg_rate" gorm:"column:flat_weighted_avg_rate"`
	OfficeWeightedAvgRate float64 `json:"office_weighted_avg_rate" gorm:"column:office_weighted_avg_rate"`
	OthersWeightedAvgRate float64 `json:"others_weighted_avg_rate" gorm:"column:others_weighted_avg_rate"`
	ShopWeightedAvgRate   float64 `json:"shop_weighted_avg_rate" gorm:"column:shop_weighted_avg_rate"`

	// Supply
	TotalUnits      int     `json:"total_units" gorm:"column:total_units"`
	TotalCarpetArea float64 `json:"total_carpet_area" gorm:"column:total_carpet_area"`
	FlatTotal       int     `json:"flat_total" gorm:"column:flat_total"`
	ShopTotal       int     `json:"shop_total" gorm:"column:shop_total"`
	OfficeTotal     int     `json:"office_total" gorm:"column:office_total"`
	OthersTotal     int     `json:"others_total" gorm:"column:others_total"`
}

func (Record) TableName() string {
	return "real_estate_data"
}

// RecordFilter restricts a record lookup. Empty slices mean unrestricted.
type RecordFilter struct {
	Locations []string
	Years     []int
	Limit     int
	Offset    int
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Processed int   `json:"processed_rows"`
	Skipped   int   `json:"skipped_rows"`
	Deleted   int64 `json:"deleted_rows"`
}
