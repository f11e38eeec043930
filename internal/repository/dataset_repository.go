package repository

import (
	"github.com/datapulse/datapulse/internal/model"
	"gorm.io/gorm"
)

// DatasetRepository 数据集注册表仓库
type DatasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集注册表仓库
func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create 记录一次上传
func (r *DatasetRepository) Create(dataset *model.Dataset) error {
	return r.db.Create(dataset).Error
}

// GetByID 根据ID获取记录
func (r *DatasetRepository) GetByID(id string) (*model.Dataset, error) {
	var dataset model.Dataset
	err := r.db.Where("id = ?", id).First(&dataset).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// List 按上传时间倒序列出记录
func (r *DatasetRepository) List(offset, limit int) ([]*model.Dataset, error) {
	var datasets []*model.Dataset
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&datasets).Error
	return datasets, err
}
