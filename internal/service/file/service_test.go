package file

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newTestService(t *testing.T, maxSize int64) *Service {
	t.Helper()
	return NewService(t.TempDir(), maxSize, []string{"csv", "xlsx"})
}

func TestValidateSizeBoundary(t *testing.T) {
	svc := newTestService(t, 1024)

	if ok, msg := svc.Validate("data.csv", 1024); !ok {
		t.Errorf("file at exactly max size should pass, got: %s", msg)
	}
	if ok, msg := svc.Validate("data.csv", 1025); ok {
		t.Error("file one byte over max size should fail")
	} else if !strings.Contains(msg, "File size exceeds") {
		t.Errorf("oversize rejection should mention size, got: %s", msg)
	}
}

func TestValidateExtension(t *testing.T) {
	svc := newTestService(t, 1024)

	if ok, msg := svc.Validate("data.txt", 10); ok {
		t.Error("txt file should be rejected")
	} else if !strings.Contains(msg, "File type not allowed") {
		t.Errorf("rejection should mention file type, got: %s", msg)
	}

	// 扩展名大小写不敏感
	if ok, _ := svc.Validate("DATA.CSV", 10); !ok {
		t.Error("uppercase extension should pass")
	}
	if ok, _ := svc.Validate("report.Xlsx", 10); !ok {
		t.Error("mixed case xlsx should pass")
	}
}

func TestSaveAndLoadCSV(t *testing.T) {
	svc := newTestService(t, 1<<20)

	content := []byte("age,city\n30,Berlin\n41,Paris\n,Oslo\n")
	fileID, err := svc.Save(content, "people.csv")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if fileID == "" {
		t.Fatal("Save should return a non-empty file ID")
	}

	frame, err := svc.Load(fileID, "people.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if frame.Rows() != 3 || frame.Cols() != 2 {
		t.Errorf("expected 3x2 frame after round trip, got %dx%d", frame.Rows(), frame.Cols())
	}

	info := svc.Describe(frame, fileID, "people.csv")
	if info.Rows != 3 || info.Columns != 2 {
		t.Errorf("Describe mismatch: %+v", info)
	}
	if len(info.ColumnNames) != 2 || info.ColumnNames[0] != "age" {
		t.Errorf("unexpected column names: %v", info.ColumnNames)
	}
}

func TestSaveAndLoadXLSX(t *testing.T) {
	svc := newTestService(t, 1<<20)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	cells := [][]interface{}{
		{"score", "label"},
		{1.5, "a"},
		{2.5, "b"},
	}
	for ri, row := range cells {
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	fileID, err := svc.Save(buf.Bytes(), "scores.xlsx")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	frame, err := svc.Load(fileID, "scores.xlsx")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if frame.Rows() != 2 || frame.Cols() != 2 {
		t.Errorf("expected 2x2 frame, got %dx%d", frame.Rows(), frame.Cols())
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	svc := newTestService(t, 1<<20)

	if _, err := svc.Load("some-id", "notes.txt"); err == nil {
		t.Fatal("loading a txt file should fail")
	} else if !strings.Contains(err.Error(), "unsupported file format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	svc := newTestService(t, 1<<20)

	if _, err := svc.Load("missing-id", "gone.csv"); err == nil {
		t.Fatal("loading a nonexistent file should fail")
	}
}
