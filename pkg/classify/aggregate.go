package classify

import (
	"github.com/yeisme/iolabel/pkg/darshan"
)

type (
	// APIUsage 单个 API 的读写量.
	APIUsage struct {
		API          string `json:"api"`
		BytesRead    int64  `json:"bytes_read"`
		BytesWritten int64  `json:"bytes_written"`
		FilesRead    int64  `json:"files_read"`
		FilesWritten int64  `json:"files_written"`
	}

	// APITotals 主导读 API 与主导写 API.
	APITotals struct {
		ReadAPI    string     `json:"read_api"`
		WriteAPI   string     `json:"write_api"`
		ReadBytes  int64      `json:"read_bytes"`
		WriteBytes int64      `json:"write_bytes"`
		ReadFiles  int64      `json:"read_files"`
		WriteFiles int64      `json:"write_files"`
		PerAPI     []APIUsage `json:"per_api"`
	}

	// FsUsage 单个挂载点的读写量.
	FsUsage struct {
		Mount        string `json:"mount"`
		BytesRead    int64  `json:"bytes_read"`
		BytesWritten int64  `json:"bytes_written"`
	}

	// FsTotals 主导读挂载点与主导写挂载点（未做逻辑名转换）.
	FsTotals struct {
		ReadFs     string    `json:"read_fs"`
		WriteFs    string    `json:"write_fs"`
		ReadBytes  int64     `json:"read_bytes"`
		WriteBytes int64     `json:"write_bytes"`
		PerFs      []FsUsage `json:"per_fs"`
	}
)

// ComputeAPITotals 统计每个 API 的读写字节数与文件数，并选出主导 API.
// BYTES_READ（或 BYTES_WRITTEN）存在且不为 0 的记录计入字节与文件数，Darshan 用 -1 表示未跟踪的计数器，
// 同样计入. 合成行（_perf、_total）跳过.
// 主导 API 取严格最大值，并列时先出现者胜出；没有任何 API 时 ok 为 false.
func ComputeAPITotals(rs *darshan.RecordSet) (APITotals, bool) {
	if rs == nil || len(rs.Counters) == 0 {
		return APITotals{}, false
	}

	usage := make([]APIUsage, 0, len(rs.Counters))

	for _, api := range rs.Counters {
		u := APIUsage{API: api.API}

		for _, file := range api.Files {
			if darshan.IsSynthetic(file.Path) {
				continue
			}

			for _, rec := range file.Records {
				if n := rec.BytesRead(); n != 0 {
					u.BytesRead += n
					u.FilesRead++
				}

				if n := rec.BytesWritten(); n != 0 {
					u.BytesWritten += n
					u.FilesWritten++
				}
			}
		}

		usage = append(usage, u)
	}

	read, write := usage[0], usage[0]

	for _, u := range usage[1:] {
		if u.BytesRead > read.BytesRead {
			read = u
		}

		if u.BytesWritten > write.BytesWritten {
			write = u
		}
	}

	return APITotals{
		ReadAPI:    read.API,
		WriteAPI:   write.API,
		ReadBytes:  read.BytesRead,
		WriteBytes: write.BytesWritten,
		ReadFiles:  read.FilesRead,
		WriteFiles: write.FilesWritten,
		PerAPI:     usage,
	}, true
}

// ComputeFsTotals 统计主导读/写 API 下每个挂载点的读写字节数.
// 读写 API 相同时只遍历一次；字节数不论另一方向是否为 0 都计入.
func ComputeFsTotals(rs *darshan.RecordSet, table *MountTable, readAPI, writeAPI string) (FsTotals, bool) {
	if rs == nil {
		return FsTotals{}, false
	}

	apis := []string{readAPI}
	if writeAPI != readAPI {
		apis = append(apis, writeAPI)
	}

	idx := make(map[string]int)

	var usage []FsUsage

	for _, name := range apis {
		api, ok := rs.API(name)
		if !ok {
			continue
		}

		for _, file := range api.Files {
			if darshan.IsSynthetic(file.Path) {
				continue
			}

			mount := table.Resolve(file.Path)

			for _, rec := range file.Records {
				i, seen := idx[mount]
				if !seen {
					i = len(usage)
					idx[mount] = i
					usage = append(usage, FsUsage{Mount: mount})
				}

				usage[i].BytesRead += rec.BytesRead()
				usage[i].BytesWritten += rec.BytesWritten()
			}
		}
	}

	if len(usage) == 0 {
		return FsTotals{}, false
	}

	read, write := usage[0], usage[0]

	for _, u := range usage[1:] {
		if u.BytesRead > read.BytesRead {
			read = u
		}

		if u.BytesWritten > write.BytesWritten {
			write = u
		}
	}

	return FsTotals{
		ReadFs:     read.Mount,
		WriteFs:    write.Mount,
		ReadBytes:  read.BytesRead,
		WriteBytes: write.BytesWritten,
		PerFs:      usage,
	}, true
}
