package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/hanyuejun/health-recorder/internal/errors"
	"github.com/hanyuejun/health-recorder/internal/exercise"
	"github.com/hanyuejun/health-recorder/internal/export"
	"github.com/hanyuejun/health-recorder/internal/journal"
	"github.com/hanyuejun/health-recorder/internal/metrics"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	return c.SendString(metrics.GetPrometheus())
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(metrics.GetSnapshot())
}

// respondError maps domain errors onto HTTP statuses
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrInvalidDate),
		errors.Is(err, apperrors.ErrBadRequest):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrRecordNotFound),
		errors.Is(err, apperrors.ErrSummaryNotFound),
		errors.Is(err, apperrors.ErrExerciseLogNotFound),
		errors.Is(err, apperrors.ErrNoLogsInRange):
		status = fiber.StatusNotFound
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.Status(status).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
	}

	s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(status).JSON(fiber.Map{"error": "internal error"})
}

// pathParam returns a URL path parameter with percent-encoding undone,
// so Chinese slot labels survive the round trip.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// ==================== Record Handlers ====================

func (s *Server) handleListRecords(c *fiber.Ctx) error {
	views, err := s.journal.GetAllRecords()
	if err != nil {
		return s.respondError(c, err)
	}
	if views == nil {
		views = []journal.MergedRecordView{}
	}
	return c.JSON(views)
}

func (s *Server) handleRecordsInRange(c *fiber.Ctx) error {
	start := c.Query("start_date")
	end := c.Query("end_date")

	views, err := s.journal.GetRecordsInRange(start, end)
	if err != nil {
		return s.respondError(c, err)
	}
	if views == nil {
		views = []journal.MergedRecordView{}
	}
	return c.JSON(views)
}

// handleGetRecord returns null rather than 404 when the slot has no
// entry, so routine polling does not spam error logs.
func (s *Server) handleGetRecord(c *fiber.Ctx) error {
	date := pathParam(c, "date")
	timeOfDay := pathParam(c, "time_of_day")

	view, err := s.journal.GetRecord(date, timeOfDay)
	if err != nil {
		return s.respondError(c, err)
	}
	if view == nil {
		return c.JSON(nil)
	}
	return c.JSON(view)
}

func (s *Server) handleCreateRecord(c *fiber.Ctx) error {
	var in journal.RecordInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := s.journal.AddRecord(&in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleDeleteRecord(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid record id"})
	}

	if err := s.journal.DeleteRecord(int64(id)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (s *Server) handleExportExcel(c *fiber.Ctx) error {
	start := c.Query("start_date")
	end := c.Query("end_date")

	// Validate before touching the database
	dates, err := export.DateRange(start, end)
	if err != nil {
		return s.respondError(c, err)
	}

	records, err := s.journal.GetRecordsInRange(start, end)
	if err != nil {
		return s.respondError(c, err)
	}
	summaries, err := s.journal.GetSummariesForDates(dates)
	if err != nil {
		return s.respondError(c, err)
	}

	content, err := export.BuildWorkbook(start, end, records, summaries)
	if err != nil {
		return s.respondError(c, err)
	}

	filename := fmt.Sprintf("health_records_%s_%s.xlsx",
		strings.ReplaceAll(dates[0], "-", ""),
		strings.ReplaceAll(dates[len(dates)-1], "-", ""))
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(content)
}

// ==================== Summary Handlers ====================

func (s *Server) handleGetSummary(c *fiber.Ctx) error {
	date := pathParam(c, "date")
	if err := journal.ValidateDate(date); err != nil {
		return s.respondError(c, err)
	}

	sum, err := s.journal.GetSummary(date)
	if err != nil {
		return s.respondError(c, err)
	}
	if sum == nil {
		return c.JSON(nil)
	}
	return c.JSON(sum)
}

func (s *Server) handleUpsertSummary(c *fiber.Ctx) error {
	var in journal.DailySummary
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if err := s.journal.UpsertSummary(in); err != nil {
		return s.respondError(c, err)
	}

	sum, err := s.journal.GetSummary(in.Date)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(sum)
}

// ==================== Exercise Handlers ====================

func (s *Server) handleGetExerciseConfig(c *fiber.Ctx) error {
	items, err := s.exercises.Config()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(items)
}

func (s *Server) handleUpdateExerciseConfig(c *fiber.Ctx) error {
	var inputs []exercise.ConfigItemInput
	if err := c.BodyParser(&inputs); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	items, err := s.exercises.UpdateConfig(inputs)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(items)
}

func (s *Server) handleListExerciseLogs(c *fiber.Ctx) error {
	logs, err := s.exercises.AllLogs()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(logs)
}

func (s *Server) handleGetExerciseLog(c *fiber.Ctx) error {
	date := pathParam(c, "date")

	log, err := s.exercises.GetLog(date)
	if err != nil {
		return s.respondError(c, err)
	}
	if log == nil {
		return c.JSON(nil)
	}
	return c.JSON(log)
}

func (s *Server) handleSaveExerciseLog(c *fiber.Ctx) error {
	date := pathParam(c, "date")

	var data map[string]exercise.LogItem
	if err := c.BodyParser(&data); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	log, err := s.exercises.SaveLog(date, data)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(log)
}

func (s *Server) handleDeleteExerciseLog(c *fiber.Ctx) error {
	date := pathParam(c, "date")

	if err := s.exercises.DeleteLog(date); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (s *Server) handleExportMarkdown(c *fiber.Ctx) error {
	start := c.Query("start_date")
	end := c.Query("end_date")

	content, err := s.exercises.ExportMarkdown(start, end)
	if err != nil {
		return s.respondError(c, err)
	}

	c.Set("Content-Type", "text/markdown; charset=utf-8")
	return c.SendString(content)
}
