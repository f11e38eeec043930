package handler

import (
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/model"
	"github.com/datapulse/datapulse/internal/service"
)

// UploadHandler 上传处理器
type UploadHandler struct {
	svc *service.Services
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(svc *service.Services) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// UploadResponse 上传响应
type UploadResponse struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	Size        int64    `json:"size"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
	UploadTime  string   `json:"upload_time"`
}

// UploadDataset 上传数据集
// POST /api/upload
func (h *UploadHandler) UploadDataset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		Error(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		Error(c, err)
		return
	}

	// 校验
	ok, msg := h.svc.File.Validate(fileHeader.Filename, int64(len(content)))
	if !ok {
		BadRequest(c, msg)
		return
	}

	// 保存
	fileID, err := h.svc.File.Save(content, fileHeader.Filename)
	if err != nil {
		Error(c, err)
		return
	}

	// 回读解析确认文件可用
	frame, err := h.svc.File.Load(fileID, fileHeader.Filename)
	if err != nil {
		Error(c, err)
		return
	}

	info := h.svc.File.Describe(frame, fileID, fileHeader.Filename)

	// 注册表只是上传历史的簿记，写入失败不影响上传结果
	if err := h.svc.Repos.Dataset.Create(&model.Dataset{
		ID:       fileID,
		Filename: fileHeader.Filename,
		Size:     int64(len(content)),
		Rows:     frame.Rows(),
		Columns:  frame.Cols(),
	}); err != nil {
		log.Printf("failed to record upload %s: %v", fileID, err)
	}

	OK(c, UploadResponse{
		ID:          info.ID,
		Filename:    info.Filename,
		Size:        int64(len(content)),
		Rows:        info.Rows,
		Columns:     info.Columns,
		ColumnNames: info.ColumnNames,
		UploadTime:  info.UploadTime,
	})
}

// ListDatasets 列出上传历史
// GET /api/files
func (h *UploadHandler) ListDatasets(c *gin.Context) {
	datasets, err := h.svc.Repos.Dataset.List(0, 100)
	if err != nil {
		Error(c, err)
		return
	}

	OK(c, gin.H{"files": datasets})
}
