package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
)

type exportService struct {
	repo    repositories.Repository
	grading GradingService
	logger  *slog.Logger
}

func NewExportService(repo repositories.Repository, grading GradingService, logger *slog.Logger) ExportService {
	return &exportService{
		repo:    repo,
		grading: grading,
		logger:  logger,
	}
}

// ExportResults builds an xlsx workbook with one row per graded attempt.
func (s *exportService) ExportResults(ctx context.Context, testID uint, actingUserID string) (*excelize.File, error) {
	s.logger.Info("Exporting results", "test_id", testID, "user_id", actingUserID)

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		return nil, notFound(err, ErrTestNotFound)
	}

	results, err := s.grading.ListResults(ctx, testID, actingUserID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Attempt ID", "User ID", "Name", "Attempt #", "Score", "Total Points", "Percentage", "Passed", "Submitted At", "Graded At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for row, r := range results {
		values := []interface{}{
			r.AttemptID,
			r.UserID,
			r.UserName,
			r.AttemptNumber,
			r.Score,
			r.TotalPoints,
			fmt.Sprintf("%.1f%%", r.Percentage),
			r.Passed,
			formatTime(r.SubmittedAt),
			formatTime(r.GradedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "J", 16)

	f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Results - %s", test.Title),
		Created: time.Now().Format(time.RFC3339),
	})

	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
