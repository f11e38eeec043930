// Package testutil 提供测试辅助工具
package testutil

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// MustFrame 从 CSV 文本构建 Frame，首行为表头
func MustFrame(t *testing.T, csvText string) *dataframe.Frame {
	t.Helper()

	r := csv.NewReader(strings.NewReader(strings.TrimSpace(csvText)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse fixture csv: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("fixture csv is empty")
	}

	frame, err := dataframe.New(rows[0], rows[1:])
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return frame
}
