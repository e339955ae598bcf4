package classify

// Mode 读写主导标签.
type Mode string

// Pattern 共享文件或每进程一个文件.
type Pattern string

const (
	ModeRead    Mode = "read"    // 读字节超过写字节的 10 倍
	ModeWrite   Mode = "write"   // 写字节超过读字节的 10 倍
	ModeUnknown Mode = "unknown" // 两者都不占主导

	PatternFPP     Pattern = "fpp"     // 触及文件数 / nprocs > 0.90
	PatternShared  Pattern = "shared"  // 触及文件数 / nprocs < 0.10
	PatternUnknown Pattern = "unknown" // 介于两者之间

	// Unknown 无法判定时的文件系统与计算系统标签.
	Unknown = "unknown"
)

type (
	// Result 一个日志文件的分类结果.
	// 可选字段缺失时为 nil，并在 Diagnostics 中附带原因.
	// 字段按 JSON 键名字母序声明，序列化结果即为有序键.
	Result struct {
		Application   *string      `json:"application,omitempty"`
		ComputeSystem string       `json:"compute_system"`
		Date          *string      `json:"date,omitempty"`
		Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
		FileSystem    string       `json:"file_system"`
		LogFile       string       `json:"log_file"`
		MD5           string       `json:"md5"`
		ReadOrWrite   Mode         `json:"read_or_write"`
		SharedOrFPP   Pattern      `json:"shared_or_fpp"`
		StartTime     *int64       `json:"start_time,omitempty"`
	}

	// Diagnostic 字段级诊断信息.
	Diagnostic struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
)

// DateOrEmpty 返回 date，缺失时为空串.
func (r *Result) DateOrEmpty() string {
	if r.Date == nil {
		return ""
	}

	return *r.Date
}

// ApplicationOrEmpty 返回 application，缺失时为空串.
func (r *Result) ApplicationOrEmpty() string {
	if r.Application == nil {
		return ""
	}

	return *r.Application
}

func (r *Result) addDiagnostic(field, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Field: field, Message: msg})
}
