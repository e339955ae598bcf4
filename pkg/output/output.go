// Package output 把分类结果序列化为 JSON 数组或 CSV 表格.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/yeisme/iolabel/pkg/classify"
)

// Format 输出格式.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Columns CSV 列顺序，log_file 为行键.
var Columns = []string{
	"log_file",
	"date",
	"compute_system",
	"file_system",
	"application",
	"shared_or_fpp",
	"read_or_write",
	"md5",
}

// ParseFormat 解析格式名，大小写不敏感.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write 按格式写出结果. 调用方负责排序.
func Write(w io.Writer, format Format, results []*classify.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON 写出 JSON 数组，4 空格缩进，键按字母序.
func WriteJSON(w io.Writer, results []*classify.Result) error {
	if results == nil {
		results = []*classify.Result{}
	}

	b, err := sonic.ConfigStd.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	b = append(b, '\n')

	_, err = w.Write(b)

	return err
}

// WriteCSV 写出带表头的 CSV，缺失字段为空.
func WriteCSV(w io.Writer, results []*classify.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.LogFile,
			r.DateOrEmpty(),
			r.ComputeSystem,
			r.FileSystem,
			r.ApplicationOrEmpty(),
			string(r.SharedOrFPP),
			string(r.ReadOrWrite),
			r.MD5,
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteFile 写出到 path；path 为空或 "-" 时写到 stdout. 写文件时向 notice 输出提示.
func WriteFile(path string, format Format, results []*classify.Result, stdout, notice io.Writer) error {
	if path == "" || path == "-" {
		return Write(stdout, format, results)
	}

	fmt.Fprintf(notice, "Writing output to %s\n", path)

	f, err := os.Create(path) //nolint:gosec // 输出路径由用户指定
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := Write(f, format, results); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
