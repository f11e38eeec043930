package model

import (
	"time"
)

// Dataset 上传数据集的注册表记录
// 仅作上传历史的簿记：分析请求的查找机制始终是磁盘上的 {id}_{filename} 命名
type Dataset struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Filename  string    `json:"filename" gorm:"index"`
	Size      int64     `json:"size"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Dataset) TableName() string {
	return "datasets"
}
