package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"

	"github.com/xuri/excelize/v2"
)

func TestHistoryWorkbookSheets(t *testing.T) {
	_, results := historyFixture()
	rows, err := results.ListWithQuiz(context.Background(), repository.ResultQuery{UserID: "u"})
	if err != nil {
		t.Fatalf("ListWithQuiz: %v", err)
	}

	f, err := HistoryWorkbook(rows)
	if err != nil {
		t.Fatalf("HistoryWorkbook: %v", err)
	}
	defer f.Close()

	history, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(history) != len(rows)+1 {
		t.Fatalf("history rows = %d, want %d", len(history), len(rows)+1)
	}
	if history[0][0] != "Completed At" || history[0][1] != "Quiz" {
		t.Fatalf("header = %v", history[0])
	}
	if history[1][1] != util.UnknownQuiz || history[1][4] != "100" {
		t.Fatalf("newest row = %v", history[1])
	}

	categories, err := f.GetRows(categorySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(categories) != 3 || categories[1][0] != "Science" || categories[1][1] != "3" {
		t.Fatalf("categories = %v", categories)
	}
}

func TestExportHistoryUploadsWorkbook(t *testing.T) {
	_, results := historyFixture()
	root := t.TempDir()
	svc := NewExportService(results, &LocalStorageProvider{Root: root})
	svc.Now = func() time.Time { return time.Date(2026, 3, 20, 8, 30, 0, 0, time.UTC) }

	out, err := svc.ExportHistory(context.Background(), "u")
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}
	if out.Rows != 5 || out.FileName != "history-20260320-083000.xlsx" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.URL != "/uploads/exports/u/history-20260320-083000.xlsx" {
		t.Fatalf("url = %q", out.URL)
	}

	f, err := excelize.OpenFile(filepath.Join(root, "exports", "u", out.FileName))
	if err != nil {
		t.Fatalf("open exported file: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(historySheet)
	if err != nil || len(rows) != 6 {
		t.Fatalf("exported rows = %d, %v", len(rows), err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	root := t.TempDir()
	p := &LocalStorageProvider{Root: root}

	url, err := p.Upload(context.Background(), "../../etc/passwd", strings.NewReader("x"), 1, "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "etc", "passwd")); err != nil {
		t.Fatalf("key should be confined to root: %v", err)
	}
	if url != "/uploads/etc/passwd" {
		t.Fatalf("url = %q", url)
	}

	if err := p.Delete(context.Background(), "etc/passwd"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestNewStorageProviderFallsBackToLocal(t *testing.T) {
	p := NewStorageProvider(&config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()})
	if _, ok := p.(*LocalStorageProvider); !ok {
		t.Fatalf("provider = %T", p)
	}

	p = NewStorageProvider(&config.StorageConfig{Type: util.StorageMinio, MinioEndpoint: "bad endpoint with spaces", LocalPath: t.TempDir()})
	if _, ok := p.(*LocalStorageProvider); !ok {
		t.Fatalf("invalid minio config should fall back, got %T", p)
	}
}
