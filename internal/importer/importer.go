package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"estateinsight/server/internal/database"
	"estateinsight/server/internal/models"
	"estateinsight/server/internal/processor"
)

// Importer replaces the store contents with the rows of a spreadsheet
type Importer struct {
	db        *database.Database
	processor *processor.BatchProcessor
	city      string
	logger    *logrus.Logger
}

func New(db *database.Database, batchSize int, city string, logger *logrus.Logger) *Importer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Importer{
		db:        db,
		processor: processor.NewBatchProcessor(batchSize, logger),
		city:      city,
		logger:    logger,
	}
}

// ImportFile imports the spreadsheet at path
func (i *Importer) ImportFile(ctx context.Context, path string) (*models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return i.Import(ctx, f, filepath.Base(path))
}

// Import reads a spreadsheet from r, using filename to pick the format
func (i *Importer) Import(ctx context.Context, r io.Reader, filename string) (*models.ImportResult, error) {
	sheet, err := ReadSheet(r, filename)
	if err != nil {
		return nil, err
	}
	return i.ImportSheet(ctx, sheet)
}

// ImportSheet clears the store and inserts every convertible row in a single
// transaction. Rows that cannot be stored are logged and skipped.
func (i *Importer) ImportSheet(ctx context.Context, sheet *Sheet) (*models.ImportResult, error) {
	mapping := NewMapping(sheet.Header, i.city)
	i.logger.WithFields(logrus.Fields{
		"columns": mapping.Matched(),
		"rows":    len(sheet.Rows),
	}).Info("Importing spreadsheet")

	result := &models.ImportResult{}
	rows := make([]processor.Row, 0, len(sheet.Rows))
	for idx, cells := range sheet.Rows {
		// data starts on the second spreadsheet row
		number := idx + 2
		record, err := mapping.Record(cells)
		if err != nil {
			i.logger.WithField("row", number).WithError(err).Warn("Skipping row")
			result.Skipped++
			continue
		}
		rows = append(rows, processor.Row{Number: number, Record: record})
	}

	deleted, err := i.db.ReplaceAll(ctx, func(tx *gorm.DB) error {
		inserted, skipped, err := i.processor.Process(tx, rows)
		if err != nil {
			return err
		}
		result.Processed = inserted
		result.Skipped += skipped
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}
	result.Deleted = deleted

	i.logger.WithFields(logrus.Fields{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"deleted":   result.Deleted,
	}).Info("Import completed")
	return result, nil
}
