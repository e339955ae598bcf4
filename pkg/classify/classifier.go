// Package classify 把 Darshan 记录集归纳为描述性标签：主导 API 与文件系统、读或写、共享文件或每进程一个文件、
// 计算系统，以及可执行文件名、日期和内容哈希等元数据.
//
// 分类是纯计算，同一个 Classifier 可以被多个 goroutine 并发使用.
package classify

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
)

var (
	// ErrNoCounters 记录集中没有任何计数器，无法判定主导 API.
	ErrNoCounters = errors.New("classify: trace has no counters")
	// ErrInvalidNProcs nprocs 缺失或不为正数.
	ErrInvalidNProcs = errors.New("classify: nprocs must be positive")
)

const (
	// dominanceFactor 一个方向至少是另一方向的 10 倍以上才算主导.
	dominanceFactor = 10

	fppThreshold    = 0.90
	sharedThreshold = 0.10

	dateLayout = "2006-01-02"
)

// Diagnostic.Field 的取值，对应 Result 中可能缺失的字段.
const (
	FieldDate        = "date"
	FieldStartTime   = "start_time"
	FieldApplication = "application"
)

// Classifier 持有编译后的挂载规则与时区.
type Classifier struct {
	namer    *FsNamer
	strict   bool
	loc      *time.Location
	timezone string
}

// New 根据分类配置创建 Classifier，正则或时区无效时返回错误.
func New(cfg configs.ClassifyConfig) (*Classifier, error) {
	namer, err := NewFsNamer(cfg.MountToFsName)
	if err != nil {
		return nil, err
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = configs.DefaultClassifyTimezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return &Classifier{namer: namer, strict: cfg.StrictMountBoundary, loc: loc, timezone: tz}, nil
}

// Namer 返回逻辑文件系统名转换器.
func (c *Classifier) Namer() *FsNamer {
	return c.namer
}

// Fingerprint 返回影响分类结果的配置摘要，配置变化后缓存即失效.
func (c *Classifier) Fingerprint() uint64 {
	d := xxhash.New()

	_, _ = d.WriteString(c.timezone)
	_, _ = d.WriteString("\x00" + strconv.FormatBool(c.strict))

	for _, r := range c.namer.Rules() {
		_, _ = d.WriteString("\x00" + r.Pattern + "\x00" + r.FsName)
	}

	return d.Sum64()
}

// Classify 对一个记录集分类；logFile 为输入路径，md5 为文件内容哈希.
// 头部字段缺失只会让对应字段为空并附带诊断，不会导致失败.
func (c *Classifier) Classify(rs *darshan.RecordSet, logFile, md5 string) (*Result, error) {
	apis, ok := ComputeAPITotals(rs)
	if !ok {
		return nil, ErrNoCounters
	}

	res := &Result{
		LogFile: filepath.Base(logFile),
		MD5:     md5,
	}

	table := NewMountTable(rs.MountPaths(), c.strict)
	// 没有任何记录时 fs 为空，此时 R=W=0，模式必然为 unknown
	fs, _ := ComputeFsTotals(rs, table, apis.ReadAPI, apis.WriteAPI)

	var mostFiles int64

	res.ReadOrWrite = DecideMode(apis.ReadBytes, apis.WriteBytes)

	switch res.ReadOrWrite {
	case ModeRead:
		res.FileSystem = c.namer.Name(fs.ReadFs)
		mostFiles = apis.ReadFiles
	case ModeWrite:
		res.FileSystem = c.namer.Name(fs.WriteFs)
		mostFiles = apis.WriteFiles
	default:
		res.FileSystem = Unknown
	}

	res.ComputeSystem = ComputeSystem(res.FileSystem)

	pattern, err := DecidePattern(mostFiles, rs.Header.NProcs)
	if err != nil {
		return nil, err
	}

	res.SharedOrFPP = pattern

	if ts := rs.Header.StartTime; ts != nil {
		start := *ts
		date := time.Unix(start, 0).In(c.loc).Format(dateLayout)
		res.StartTime = &start
		res.Date = &date
	} else {
		res.addDiagnostic(FieldStartTime, "start_time is undecipherable")
		res.addDiagnostic(FieldDate, "date is derived from start_time")
	}

	if exe, ok := rs.Header.Executable(); ok {
		app := filepath.Base(exe)
		res.Application = &app
	} else {
		res.addDiagnostic(FieldApplication, "exe is undecipherable")
	}

	return res, nil
}

// DecideMode read 当且仅当 R > 10W，write 当且仅当 W > 10R，否则 unknown.
func DecideMode(readBytes, writeBytes int64) Mode {
	switch {
	case dominates(readBytes, writeBytes):
		return ModeRead
	case dominates(writeBytes, readBytes):
		return ModeWrite
	default:
		return ModeUnknown
	}
}

// dominates 计算 a > 10*b 且不溢出：a = 10q + r，则 a > 10b 等价于 q > b 或 (q == b 且 r > 0).
func dominates(a, b int64) bool {
	switch {
	case a >= 0 && b >= 0:
		q, r := a/dominanceFactor, a%dominanceFactor
		return q > b || (q == b && r > 0)
	case a < 0 && b >= 0:
		return false
	case a >= 0:
		return true
	case b < math.MinInt64/dominanceFactor:
		return true
	default:
		return a > dominanceFactor*b
	}
}

// DecidePattern 按 mostFiles/nprocs 判定访问模式：> 0.90 为 fpp，< 0.10 为 shared，其余 unknown.
func DecidePattern(mostFiles int64, nprocs int) (Pattern, error) {
	if nprocs <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidNProcs, nprocs)
	}

	ratio := float64(mostFiles) / float64(nprocs)

	switch {
	case ratio > fppThreshold:
		return PatternFPP, nil
	case ratio < sharedThreshold:
		return PatternShared, nil
	default:
		return PatternUnknown, nil
	}
}
