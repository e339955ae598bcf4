// Package types 定义 HTTP 接口与服务层之间传递的请求和响应结构.
package types

// ListQuery 索引查询条件，字段均可选.
type ListQuery struct {
	ComputeSystem string `form:"compute_system" json:"compute_system,omitempty"`
	FileSystem    string `form:"file_system"    json:"file_system,omitempty"`
	ReadOrWrite   string `form:"read_or_write"  json:"read_or_write,omitempty"  rule:"omitempty,oneof=read write unknown"`
	SharedOrFPP   string `form:"shared_or_fpp"  json:"shared_or_fpp,omitempty"  rule:"omitempty,oneof=fpp shared unknown"`
	Application   string `form:"application"    json:"application,omitempty"`
	// Since/Until 按 start_time（unix 秒）过滤，闭区间
	Since  *int64 `form:"since"  json:"since,omitempty"`
	Until  *int64 `form:"until"  json:"until,omitempty"`
	Limit  int    `form:"limit"  json:"limit,omitempty"  rule:"omitempty,min=1,max=10000"`
	Offset int    `form:"offset" json:"offset,omitempty" rule:"min=0"`
}

// LabelCount 某个标签值的记录数.
type LabelCount struct {
	Label string `gorm:"column:label" json:"label"`
	Count int64  `gorm:"column:cnt"   json:"count"`
}

// IndexSummary 索引总体统计.
type IndexSummary struct {
	Total           int64        `json:"total"`
	FirstStartTime  *int64       `json:"first_start_time,omitempty"`
	LastStartTime   *int64       `json:"last_start_time,omitempty"`
	ByComputeSystem []LabelCount `json:"by_compute_system"`
	ByFileSystem    []LabelCount `json:"by_file_system"`
	ByReadOrWrite   []LabelCount `json:"by_read_or_write"`
	BySharedOrFPP   []LabelCount `json:"by_shared_or_fpp"`
	ByApplication   []LabelCount `json:"by_application"`
}

// ListResponse 分页查询结果.
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
