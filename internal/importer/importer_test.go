package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateinsight/server/internal/database"
	"estateinsight/server/internal/models"
)

func setupImporter(t *testing.T, batchSize int) (*Importer, *database.Database) {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	store := database.New(db, logrus.New())
	t.Cleanup(func() { store.Close() })

	return New(store, batchSize, "Pune", logrus.New()), store
}

func TestImporter_ImportWorkbook(t *testing.T) {
	imp, store := setupImporter(t, 2)

	buf := workbook(t,
		[]interface{}{"Final Location", "Year", "total_sales - IGR", "Total Sold - IGR", "Flat - Weighted Average Rate"},
		[]interface{}{"Wakad", 2022, 4000000, 100, 6000},
		[]interface{}{"Wakad", 2023, 5000000, 120, 6500},
		[]interface{}{"Aundh", 2023, 2500000, 50, 9000},
	)

	result, err := imp.Import(context.Background(), buf, "sample_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, &models.ImportResult{Processed: 3}, result)

	records, err := store.FindRecords(context.Background(), models.RecordFilter{Locations: []string{"Wakad"}, Years: []int{2023}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5_000_000.0, records[0].TotalSalesIGR)
	assert.Equal(t, 120, records[0].TotalSoldIGR)
	assert.Equal(t, 6500.0, records[0].FlatWeightedAvgRate)
	assert.Equal(t, "Pune", records[0].City)
}

func TestImporter_ReplacesExistingRecords(t *testing.T) {
	imp, store := setupImporter(t, 100)
	ctx := context.Background()

	first := "final_location,year\nWakad,2020\nWakad,2021\nAundh,2020\n"
	_, err := imp.Import(ctx, strings.NewReader(first), "first.csv")
	require.NoError(t, err)

	second := "final_location,year\nAkurdi,2024\n"
	result, err := imp.Import(ctx, strings.NewReader(second), "second.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, int64(3), result.Deleted)

	records, err := store.FindRecords(ctx, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Akurdi", records[0].FinalLocation)
}

func TestImporter_SkipsBadRows(t *testing.T) {
	imp, store := setupImporter(t, 10)

	data := strings.Join([]string{
		"final_location,year,total_units",
		"Wakad,2023,10",
		",,",
		"Wakad,2023,99",
		"Aundh,not-a-year,5",
		"Aundh,,6",
	}, "\n")

	result, err := imp.Import(context.Background(), strings.NewReader(data), "data.csv")
	require.NoError(t, err)

	// the blank row and the repeated Wakad/2023 are skipped; both Aundh rows
	// fall back to 2020 so the second one is a duplicate
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 3, result.Skipped)

	records, err := store.FindRecords(context.Background(), models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10, records[0].TotalUnits)
	assert.Equal(t, "Aundh", records[1].FinalLocation)
	assert.Equal(t, 2020, records[1].Year)
	assert.Equal(t, 5, records[1].TotalUnits)
}

func TestImporter_ImportFile(t *testing.T) {
	imp, _ := setupImporter(t, 100)

	path := filepath.Join(t.TempDir(), "sample_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("final_location,year\nWakad,2024\n"), 0644))

	result, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	_, err = imp.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestImporter_UnreadableFileKeepsRecords(t *testing.T) {
	imp, store := setupImporter(t, 100)
	ctx := context.Background()

	_, err := imp.Import(ctx, strings.NewReader("final_location,year\nWakad,2024\n"), "seed.csv")
	require.NoError(t, err)

	_, err = imp.Import(ctx, strings.NewReader("garbage"), "data.xlsx")
	require.Error(t, err)

	count, err := store.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
