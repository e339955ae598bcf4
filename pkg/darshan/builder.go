package darshan

// Builder 按首次出现顺序增量构建 RecordSet.
type Builder struct {
	rs      RecordSet
	apiIdx  map[string]int
	fileIdx map[string]map[string]int
	recIdx  map[string]map[string]map[string]int
	mounts  map[string]struct{}
}

// NewBuilder 创建 Builder.
func NewBuilder() *Builder {
	return &Builder{
		apiIdx:  make(map[string]int),
		fileIdx: make(map[string]map[string]int),
		recIdx:  make(map[string]map[string]map[string]int),
		mounts:  make(map[string]struct{}),
	}
}

// Header 返回可修改的日志头.
func (b *Builder) Header() *Header {
	return &b.rs.Header
}

// AddMount 添加挂载点，重复路径忽略.
func (b *Builder) AddMount(path, fsType string) *Builder {
	if _, ok := b.mounts[path]; ok {
		return b
	}

	b.mounts[path] = struct{}{}
	b.rs.Mounts = append(b.rs.Mounts, Mount{Path: path, FsType: fsType})

	return b
}

// AddAPI 确保 API 存在（即使没有任何文件记录）.
func (b *Builder) AddAPI(api string) *Builder {
	b.api(api)
	return b
}

// SetCounter 设置整数计数器.
func (b *Builder) SetCounter(api, path, rank, counter string, value int64) *Builder {
	rec := b.record(api, path, rank)
	if rec.Counters == nil {
		rec.Counters = make(map[string]int64)
	}

	rec.Counters[counter] = value

	return b
}

// SetFCounter 设置浮点计数器.
func (b *Builder) SetFCounter(api, path, rank, counter string, value float64) *Builder {
	rec := b.record(api, path, rank)
	if rec.FCounters == nil {
		rec.FCounters = make(map[string]float64)
	}

	rec.FCounters[counter] = value

	return b
}

// SetRecordID 记录 darshan 的记录哈希.
func (b *Builder) SetRecordID(api, path, rank, id string) *Builder {
	b.record(api, path, rank).RecordID = id
	return b
}

// Build 返回构建结果.
func (b *Builder) Build() *RecordSet {
	rs := b.rs
	return &rs
}

// Empty 判断是否还没有任何内容.
func (b *Builder) Empty() bool {
	return len(b.rs.Counters) == 0 && len(b.rs.Mounts) == 0 && b.rs.Header.NProcs == 0 && len(b.rs.Header.Exe) == 0
}

func (b *Builder) api(api string) *APICounters {
	i, ok := b.apiIdx[api]
	if !ok {
		i = len(b.rs.Counters)
		b.apiIdx[api] = i
		b.fileIdx[api] = make(map[string]int)
		b.recIdx[api] = make(map[string]map[string]int)
		b.rs.Counters = append(b.rs.Counters, APICounters{API: api})
	}

	return &b.rs.Counters[i]
}

func (b *Builder) file(api, path string) *FileRecords {
	a := b.api(api)

	i, ok := b.fileIdx[api][path]
	if !ok {
		i = len(a.Files)
		b.fileIdx[api][path] = i
		b.recIdx[api][path] = make(map[string]int)
		a.Files = append(a.Files, FileRecords{Path: path})
	}

	return &a.Files[i]
}

func (b *Builder) record(api, path, rank string) *Record {
	f := b.file(api, path)

	i, ok := b.recIdx[api][path][rank]
	if !ok {
		i = len(f.Records)
		b.recIdx[api][path][rank] = i
		f.Records = append(f.Records, Record{Rank: rank})
	}

	return &f.Records[i]
}
