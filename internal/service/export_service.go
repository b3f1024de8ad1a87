package service

import (
	"context"
	"fmt"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	historySheet  = "History"
	categorySheet = "Categories"
)

var historyHeader = []interface{}{
	"Completed At", "Quiz", "Category", "Difficulty", "Percentage", "Grade", "Passed",
	"Correct", "Questions", "Earned Points", "Total Points", "Time Spent (s)",
}

var categoryHeader = []interface{}{"Category", "Attempts", "Average Score", "Best Score", "Total Points"}

type ExportService struct {
	ResultRepo ResultStore
	Storage    StorageProvider
	Now        func() time.Time
}

func NewExportService(resultRepo ResultStore, storage StorageProvider) *ExportService {
	return &ExportService{ResultRepo: resultRepo, Storage: storage, Now: time.Now}
}

// ExportOutcome 导出结果
type ExportOutcome struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Rows     int    `json:"rows"`
}

// ExportHistory 导出用户全部作答记录为 xlsx 并上传
func (s *ExportService) ExportHistory(ctx context.Context, userID string) (*ExportOutcome, error) {
	rows, err := s.ResultRepo.ListWithQuiz(ctx, repository.ResultQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("load results of %s: %w", userID, err)
	}

	f, err := HistoryWorkbook(rows)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	fileName := fmt.Sprintf("history-%s.xlsx", s.Now().UTC().Format("20060102-150405"))
	key := fmt.Sprintf("exports/%s/%s", userID, fileName)
	url, err := s.Storage.Upload(ctx, key, buf, int64(buf.Len()), util.MimeXLSX)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	logger.Log.Info("History exported",
		zap.String("userId", userID),
		zap.String("key", key),
		zap.Int("rows", len(rows)),
	)
	return &ExportOutcome{FileName: fileName, URL: url, Rows: len(rows)}, nil
}

// HistoryWorkbook 第一页为逐条记录，第二页为分类汇总
func HistoryWorkbook(rows []model.ResultWithQuiz) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(categorySheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeHistorySheet(f, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("history sheet: %w", err)
	}
	if err := writeCategorySheet(f, categoryPerformance(rows)); err != nil {
		f.Close()
		return nil, fmt.Errorf("category sheet: %w", err)
	}
	return f, nil
}

func writeHistorySheet(f *excelize.File, rows []model.ResultWithQuiz) error {
	if err := writeHeader(f, historySheet, historyHeader); err != nil {
		return err
	}
	for i := range rows {
		item := toHistoryItem(&rows[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			item.CompletedAt.UTC().Format(util.TimeFormat),
			item.QuizTitle,
			item.Category,
			item.Difficulty,
			item.Percentage,
			item.Grade,
			item.IsPassed,
			item.CorrectAnswers,
			item.TotalQuestions,
			item.EarnedPoints,
			item.TotalPoints,
			item.TimeSpent,
		}
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(historySheet, "A", "B", 24)
}

func writeCategorySheet(f *excelize.File, perf []model.CategoryPerformance) error {
	if err := writeHeader(f, categorySheet, categoryHeader); err != nil {
		return err
	}
	for i, p := range perf {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{p.Category, p.TotalAttempts, p.AverageScore, p.BestScore, p.TotalPoints}
		if err := f.SetSheetRow(categorySheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(categorySheet, "A", "A", 20)
}

func writeHeader(f *excelize.File, sheet string, header []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}
