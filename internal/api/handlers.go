package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateinsight/server/config"
	"estateinsight/server/internal/analysis"
	"estateinsight/server/internal/database"
	"estateinsight/server/internal/geometry"
	"estateinsight/server/internal/importer"
	"estateinsight/server/internal/models"
	"estateinsight/server/internal/query"
)

type Handler struct {
	db          *database.Database
	logger      *logrus.Logger
	interpreter *query.Interpreter
	summarizer  *analysis.Summarizer
	importer    *importer.Importer
	locations   []config.Location
}

type AnalyzeRequest struct {
	Query string `json:"query"`
}

type AnalyzeResponse struct {
	Summary   string             `json:"summary"`
	ChartData analysis.ChartData `json:"chart_data"`
	TableData []models.Record    `json:"table_data"`
	Query     string             `json:"query"`
}

func NewHandler(
	db *database.Database,
	interpreter *query.Interpreter,
	summarizer *analysis.Summarizer,
	imp *importer.Importer,
	locations []config.Location,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:          db,
		logger:      logger,
		interpreter: interpreter,
		summarizer:  summarizer,
		importer:    imp,
		locations:   locations,
	}
}

// Analyze answers a free-text question with a narrative, chart series and
// the matching records.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	filter := h.interpreter.Interpret(req.Query)
	h.logger.WithFields(logrus.Fields{
		"locations":      filter.Locations,
		"years":          filter.Years,
		"location_match": filter.LocationMatch,
	}).Debug("Interpreted query")

	records, err := h.db.FindRecords(c.Request.Context(), filter.RecordFilter())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get records"})
		return
	}

	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data found for the given query"})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		Summary:   h.summarizer.Summarize(c.Request.Context(), req.Query, records),
		ChartData: analysis.BuildChartData(records),
		TableData: records,
		Query:     req.Query,
	})
}

// Upload replaces the store contents with an uploaded spreadsheet
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.logger.WithError(err).WithField("filename", header.Filename).Error("Upload failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Data uploaded successfully",
		"processed_rows": result.Processed,
	})
}

// Download returns the raw records for an optional location and year
func (h *Handler) Download(c *gin.Context) {
	filter, err := parseRecordFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.db.FindRecords(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) ListRecords(c *gin.Context) {
	filter, err := parseRecordFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if filter.Limit, err = parseNonNegative(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.Offset, err = parseNonNegative(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.db.FindRecords(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.db.GetRecord(c.Request.Context(), id)
	if errors.Is(err, database.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// CreateRecord stores a record, replacing the one with the same location
// and year.
func (h *Handler) CreateRecord(c *gin.Context) {
	record, ok := bindRecord(c)
	if !ok {
		return
	}

	if err := h.db.UpsertRecord(c.Request.Context(), record); err != nil {
		h.logger.WithError(err).Error("Failed to save record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	record, ok := bindRecord(c)
	if !ok {
		return
	}

	err := h.db.UpdateRecord(c.Request.Context(), id, record)
	switch {
	case errors.Is(err, database.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	case errors.Is(err, database.ErrDuplicateRecord):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to update record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Locations returns the known locations as a GeoJSON FeatureCollection
func (h *Handler) Locations(c *gin.Context) {
	records, err := h.db.FindRecords(c.Request.Context(), models.RecordFilter{
		Locations: config.LocationNames(h.locations),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to get records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get locations"})
		return
	}

	c.JSON(http.StatusOK, geometry.BuildLocationMap(h.locations, records))
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"narrative": h.summarizer.NarrativeEnabled(),
	})
}

// parseRecordFilter reads the location and year query parameters. Absent
// values and "all" leave the filter unrestricted.
func parseRecordFilter(c *gin.Context) (models.RecordFilter, error) {
	var filter models.RecordFilter

	if location := c.Query("location"); location != "" && location != "all" {
		filter.Locations = []string{location}
	}

	if year := c.Query("year"); year != "" && year != "all" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return filter, fmt.Errorf("invalid year: %s", year)
		}
		filter.Years = []int{y}
	}

	return filter, nil
}

func parseNonNegative(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return v, nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return 0, false
	}
	return uint(id), true
}

func bindRecord(c *gin.Context) (*models.Record, bool) {
	var record models.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	record.FinalLocation = strings.TrimSpace(record.FinalLocation)
	if record.FinalLocation == "" || record.Year == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "final_location and year are required"})
		return nil, false
	}
	return &record, true
}
