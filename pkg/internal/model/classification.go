// Package model 定义索引数据库的 GORM 模型.
package model

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/iolabel/pkg/classify"
)

// Classification 一个日志文件的分类记录，以内容 md5 唯一.
type Classification struct {
	ID  uint   `gorm:"primaryKey"         json:"id"`
	MD5 string `gorm:"size:32;uniqueIndex" json:"md5"`
	// 最近一次索引时的文件名
	LogFile       string  `gorm:"size:512;index" json:"log_file"`
	Application   *string `gorm:"size:255;index" json:"application,omitempty"`
	ComputeSystem string  `gorm:"size:64;index"  json:"compute_system"`
	FileSystem    string  `gorm:"size:128;index" json:"file_system"`
	ReadOrWrite   string  `gorm:"size:16;index"  json:"read_or_write"`
	SharedOrFPP   string  `gorm:"size:16;index"  json:"shared_or_fpp"`
	Date          *string `gorm:"size:10"        json:"date,omitempty"`
	StartTime     *int64  `gorm:"index"          json:"start_time,omitempty"`
	// 诊断信息以 JSON 字符串存储
	DiagnosticsJSON string    `gorm:"type:text" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromResult 把分类结果转换为数据库记录.
func FromResult(r *classify.Result) (*Classification, error) {
	c := &Classification{
		MD5:           r.MD5,
		LogFile:       r.LogFile,
		Application:   r.Application,
		ComputeSystem: r.ComputeSystem,
		FileSystem:    r.FileSystem,
		ReadOrWrite:   string(r.ReadOrWrite),
		SharedOrFPP:   string(r.SharedOrFPP),
		Date:          r.Date,
		StartTime:     r.StartTime,
	}

	if len(r.Diagnostics) > 0 {
		b, err := sonic.Marshal(r.Diagnostics)
		if err != nil {
			return nil, fmt.Errorf("marshal diagnostics: %w", err)
		}

		c.DiagnosticsJSON = string(b)
	}

	return c, nil
}

// ToResult 还原为分类结果.
func (c *Classification) ToResult() (*classify.Result, error) {
	r := &classify.Result{
		Application:   c.Application,
		ComputeSystem: c.ComputeSystem,
		Date:          c.Date,
		FileSystem:    c.FileSystem,
		LogFile:       c.LogFile,
		MD5:           c.MD5,
		ReadOrWrite:   classify.Mode(c.ReadOrWrite),
		SharedOrFPP:   classify.Pattern(c.SharedOrFPP),
		StartTime:     c.StartTime,
	}

	if c.DiagnosticsJSON != "" {
		if err := sonic.UnmarshalString(c.DiagnosticsJSON, &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}

	return r, nil
}
