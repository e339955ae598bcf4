package darshan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyTrace darshan-parser 没有输出任何可识别内容.
var ErrEmptyTrace = errors.New("darshan: empty trace")

const (
	maxLineBytes = 4 << 20 // 单行上限，exe 行可能带很长的参数

	headerPrefix   = "# "
	mountPrefix    = "# mount entry:"
	moduleSuffix   = " module data"
	totalPrefix    = "total_"
	aggPerfPrefix  = "agg_perf_by_"
	minCounterCols = 6
)

// ParseText 解析 darshan-parser（--base、--total、--perf）的文本输出.
func ParseText(r io.Reader) (*RecordSet, error) {
	b := NewBuilder()
	module := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			module = parseCommentLine(b, line, module)
			continue
		}

		if strings.HasPrefix(line, totalPrefix) {
			if err := parseTotalLine(b, line, module); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < minCounterCols {
			continue
		}

		if err := parseCounterRow(b, fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading parser output: %w", err)
	}

	if b.Empty() {
		return nil, ErrEmptyTrace
	}

	return b.Build(), nil
}

// parseCommentLine 处理以 # 开头的行，返回（可能更新后的）当前模块名.
func parseCommentLine(b *Builder, line, module string) string {
	if strings.HasPrefix(line, mountPrefix) {
		fields := strings.Fields(strings.TrimPrefix(line, mountPrefix))
		if len(fields) > 0 {
			fsType := ""
			if len(fields) > 1 {
				fsType = fields[1]
			}

			b.AddMount(fields[0], fsType)
		}

		return module
	}

	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))

	if strings.HasSuffix(body, moduleSuffix) {
		name := strings.TrimSpace(strings.TrimSuffix(body, moduleSuffix))
		if name != "" && !strings.Contains(name, " ") {
			return name
		}

		return module
	}

	if !strings.HasPrefix(line, headerPrefix) {
		return module
	}

	key, value, ok := strings.Cut(body, ":")
	if !ok {
		return module
	}

	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if strings.HasPrefix(key, aggPerfPrefix) && module != "" {
		// "# agg_perf_by_slowest: 1234.5 # MiB/s"
		num, _, _ := strings.Cut(value, "#")
		if f, err := strconv.ParseFloat(strings.TrimSpace(num), 64); err == nil {
			b.SetFCounter(module, FilePerf, RankShared, key, f)
		}

		return module
	}

	parseHeaderField(b.Header(), key, value)

	return module
}

func parseHeaderField(h *Header, key, value string) {
	switch key {
	case "exe":
		h.Exe = strings.Fields(value)
	case "nprocs":
		if n, err := strconv.Atoi(value); err == nil {
			h.NProcs = n
		}
	case "start_time":
		if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
			h.StartTime = &ts
		}
	case "end_time":
		if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
			h.EndTime = &ts
		}
	case "jobid":
		h.JobID = value
	case "uid":
		h.UID = value
	case "darshan log version":
		h.Version = value
	}
}

// parseTotalLine 解析 "total_POSIX_BYTES_READ: 1024".
func parseTotalLine(b *Builder, line, module string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}

	counter := StripModulePrefix(strings.TrimPrefix(key, totalPrefix))
	api := module

	if api == "" {
		// 没有模块标题时退回到计数器前缀
		api, _, _ = strings.Cut(strings.TrimPrefix(key, totalPrefix), "_")
	}

	return setValue(b, api, FileTotal, RankShared, counter, strings.TrimSpace(value))
}

// parseCounterRow 解析 <module> <rank> <record id> <counter> <value> <file> [<mount> <fs>].
func parseCounterRow(b *Builder, fields []string) error {
	api := strings.TrimSpace(fields[0])
	rank := strings.TrimSpace(fields[1])
	recordID := strings.TrimSpace(fields[2])
	counter := StripModulePrefix(strings.TrimSpace(fields[3]))
	path := fields[5]

	if err := setValue(b, api, path, rank, counter, strings.TrimSpace(fields[4])); err != nil {
		return err
	}

	b.SetRecordID(api, path, rank, recordID)

	return nil
}

func setValue(b *Builder, api, path, rank, counter, raw string) error {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		b.SetCounter(api, path, rank, counter, v)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q for counter %s: %w", raw, counter, err)
	}

	b.SetFCounter(api, path, rank, counter, f)

	return nil
}
