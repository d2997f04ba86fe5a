package processor

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estateinsight/server/internal/database"
	"estateinsight/server/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Setup test database connection
	db, err := database.NewTestDB()
	require.NoError(t, err)

	// Migrate the schema
	err = database.MigrateSchema(db)
	require.NoError(t, err)

	return db
}

func rowsOf(records ...models.Record) []Row {
	rows := make([]Row, len(records))
	for i := range records {
		rows[i] = Row{Number: i + 2, Record: &records[i]}
	}
	return rows
}

func process(t *testing.T, db *gorm.DB, p *BatchProcessor, rows []Row) (int, int) {
	t.Helper()
	var inserted, skipped int
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, skipped, err = p.Process(tx, rows)
		return err
	})
	require.NoError(t, err)
	return inserted, skipped
}

func TestNewBatchProcessor(t *testing.T) {
	logger := logrus.New()

	processor := NewBatchProcessor(25, logger)
	assert.Equal(t, 25, processor.batchSize)
	assert.Equal(t, logger, processor.logger)

	processor = NewBatchProcessor(0, nil)
	assert.Equal(t, defaultBatchSize, processor.batchSize)
	assert.NotNil(t, processor.logger)
}

func TestBatchProcessor_Process(t *testing.T) {
	db := setupTestDB(t)
	processor := NewBatchProcessor(2, logrus.New())

	rows := rowsOf(
		models.Record{FinalLocation: "Wakad", Year: 2020},
		models.Record{FinalLocation: "Wakad", Year: 2021},
		models.Record{FinalLocation: "Wakad", Year: 2022},
		models.Record{FinalLocation: "Aundh", Year: 2020},
		models.Record{FinalLocation: "Aundh", Year: 2021},
	)

	inserted, skipped := process(t, db, processor, rows)
	assert.Equal(t, 5, inserted)
	assert.Equal(t, 0, skipped)

	var count int64
	require.NoError(t, db.Model(&models.Record{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestBatchProcessor_SkipsDuplicateRows(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
	}{
		{name: "Single batch", batchSize: 10},
		{name: "Duplicate across batches", batchSize: 1},
		{name: "Uneven batches", batchSize: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			processor := NewBatchProcessor(tt.batchSize, logrus.New())

			rows := rowsOf(
				models.Record{FinalLocation: "Wakad", Year: 2023, FlatWeightedAvgRate: 6500},
				models.Record{FinalLocation: "Aundh", Year: 2023},
				models.Record{FinalLocation: "Wakad", Year: 2023, FlatWeightedAvgRate: 9999},
				models.Record{FinalLocation: "Akurdi", Year: 2024},
			)

			inserted, skipped := process(t, db, processor, rows)
			assert.Equal(t, 3, inserted)
			assert.Equal(t, 1, skipped)

			var stored []models.Record
			require.NoError(t, db.Order("id").Find(&stored).Error)
			require.Len(t, stored, 3)
			assert.Equal(t, "Wakad", stored[0].FinalLocation)
			assert.Equal(t, 6500.0, stored[0].FlatWeightedAvgRate)
			assert.Equal(t, "Aundh", stored[1].FinalLocation)
			assert.Equal(t, "Akurdi", stored[2].FinalLocation)
		})
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	db := setupTestDB(t)
	processor := NewBatchProcessor(10, logrus.New())

	inserted, skipped := process(t, db, processor, nil)
	assert.Zero(t, inserted)
	assert.Zero(t, skipped)
}

func TestBatchProcessor_RollsBackWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	processor := NewBatchProcessor(10, logrus.New())

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := processor.Process(tx, rowsOf(models.Record{FinalLocation: "Wakad", Year: 2023}))
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, db.Model(&models.Record{}).Count(&count).Error)
	assert.Zero(t, count)
}
