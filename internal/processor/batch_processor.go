package processor

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"estateinsight/server/internal/database"
	"estateinsight/server/internal/models"
)

const defaultBatchSize = 100

// Row is a record together with the spreadsheet row it was read from
type Row struct {
	Number int
	Record *models.Record
}

// BatchProcessor writes imported records in batches inside a caller-owned
// transaction. A failing batch is retried row by row so that only the
// offending rows are skipped.
type BatchProcessor struct {
	batchSize int
	logger    *logrus.Logger
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(batchSize int, logger *logrus.Logger) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &BatchProcessor{
		batchSize: batchSize,
		logger:    logger,
	}
}

// Process inserts rows through tx and returns the number of inserted and
// skipped rows. Only errors that leave tx unusable are returned.
func (p *BatchProcessor) Process(tx *gorm.DB, rows []Row) (inserted, skipped int, err error) {
	for start := 0; start < len(rows); start += p.batchSize {
		end := start + p.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		ok, err := p.processBatch(tx, start/p.batchSize, rows[start:end])
		if err != nil {
			return inserted, skipped, err
		}
		inserted += ok
		skipped += end - start - ok
	}
	return inserted, skipped, nil
}

// processBatch handles a single batch of rows behind a savepoint
func (p *BatchProcessor) processBatch(tx *gorm.DB, index int, batch []Row) (int, error) {
	savepoint := fmt.Sprintf("import_batch_%d", index)
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return 0, fmt.Errorf("failed to create savepoint: %w", err)
	}

	records := make([]*models.Record, len(batch))
	for i, row := range batch {
		records[i] = row.Record
	}

	err := tx.Create(&records).Error
	if err == nil {
		p.logger.Debugf("Inserted batch of %d records", len(batch))
		return len(batch), nil
	}

	p.logger.WithError(err).Warnf("Batch %d failed, retrying row by row", index)
	if err := tx.RollbackTo(savepoint).Error; err != nil {
		return 0, fmt.Errorf("failed to roll back batch: %w", err)
	}

	inserted := 0
	for _, row := range batch {
		if err := p.processRow(tx, row); err != nil {
			var fatal *fatalError
			if errors.As(err, &fatal) {
				return inserted, fatal.err
			}
			p.logRowFailure(row, err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (p *BatchProcessor) processRow(tx *gorm.DB, row Row) error {
	savepoint := fmt.Sprintf("import_row_%d", row.Number)
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return &fatalError{fmt.Errorf("failed to create savepoint: %w", err)}
	}

	row.Record.ID = 0
	if err := tx.Create(row.Record).Error; err != nil {
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return &fatalError{fmt.Errorf("failed to roll back row %d: %w", row.Number, rbErr)}
		}
		return err
	}
	return nil
}

func (p *BatchProcessor) logRowFailure(row Row, err error) {
	entry := p.logger.WithFields(logrus.Fields{
		"row":      row.Number,
		"location": row.Record.FinalLocation,
		"year":     row.Record.Year,
	})
	if database.IsDuplicate(err) {
		entry.Warn("Skipping row: duplicate location and year")
		return
	}
	entry.WithError(err).Warn("Skipping row")
}
