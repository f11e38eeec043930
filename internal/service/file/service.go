// Package file 提供上传文件的校验、保存与表格重建
package file

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// Service 文件存储服务
// 磁盘命名 {file_id}_{filename} 即唯一索引，不依赖任何元数据存储
type Service struct {
	uploadDir  string
	maxSize    int64
	allowed    map[string]bool
	extensions []string
}

// Info 数据集描述信息
type Info struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
	UploadTime  string   `json:"upload_time"`
}

// NewService 创建文件存储服务
func NewService(uploadDir string, maxSize int64, allowedExtensions []string) *Service {
	allowed := make(map[string]bool, len(allowedExtensions))
	extensions := make([]string, 0, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(ext)
		allowed[ext] = true
		extensions = append(extensions, ext)
	}
	return &Service{
		uploadDir:  uploadDir,
		maxSize:    maxSize,
		allowed:    allowed,
		extensions: extensions,
	}
}

// Validate 校验上传文件的大小与扩展名
func (s *Service) Validate(filename string, size int64) (bool, string) {
	if size > s.maxSize {
		return false, fmt.Sprintf("File size exceeds %d bytes", s.maxSize)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowed[ext] {
		return false, fmt.Sprintf("File type not allowed. Allowed: %s", strings.Join(s.extensions, ", "))
	}

	return true, "valid"
}

// Save 保存上传内容并返回生成的文件ID
func (s *Service) Save(content []byte, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileID := uuid.New().String()
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", fileID, filename))

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fileID, nil
}

// Load 按 {file_id}_{filename} 重建表格
func (s *Service) Load(fileID, filename string) (*dataframe.Frame, error) {
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", fileID, filename))

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return loadCSV(path)
	case strings.HasSuffix(lower, ".xlsx"):
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filename)
	}
}

// Describe 提取数据集描述信息，upload_time 为本次调用时刻
func (s *Service) Describe(frame *dataframe.Frame, fileID, filename string) *Info {
	return &Info{
		ID:          fileID,
		Filename:    filename,
		Rows:        frame.Rows(),
		Columns:     frame.Cols(),
		ColumnNames: frame.ColumnNames(),
		UploadTime:  time.Now().Format(time.RFC3339),
	}
}

func loadCSV(path string) (*dataframe.Frame, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return framesFromRows(rows)
}

func loadXLSX(path string) (*dataframe.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}

	return framesFromRows(rows)
}

func framesFromRows(rows [][]string) (*dataframe.Frame, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return dataframe.New(rows[0], rows[1:])
}
