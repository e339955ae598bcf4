package darshan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/iolabel/pkg/configs"
)

// ErrUnknownReader 未注册的读取器类型.
var ErrUnknownReader = errors.New("darshan: unknown reader type")

// Reader 把一个日志文件读成 RecordSet.
type Reader interface {
	Read(ctx context.Context, path string) (*RecordSet, error)
}

// ReaderType 读取器类型.
type ReaderType string

const (
	ReaderAuto   ReaderType = "auto"
	ReaderParser ReaderType = "parser"
	ReaderText   ReaderType = "text"
	ReaderJSON   ReaderType = "json"
)

// ReaderFactory 根据配置创建 Reader.
type ReaderFactory func(cfg configs.ReaderConfig) (Reader, error)

var readerFactories = map[ReaderType]ReaderFactory{}

// RegisterReader 注册读取器工厂函数.
func RegisterReader(t ReaderType, factory ReaderFactory) {
	readerFactories[t] = factory
}

// RegisteredReaders 返回已注册的读取器类型（排序后）.
func RegisteredReaders() []ReaderType {
	types := make([]ReaderType, 0, len(readerFactories))
	for t := range readerFactories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewReader 根据类型创建 Reader.
func NewReader(t ReaderType, cfg configs.ReaderConfig) (Reader, error) {
	factory, ok := readerFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReader, t)
	}

	return factory(cfg)
}

// TextReader 读取已经导出的 darshan-parser 文本.
type TextReader struct{}

// Read 实现 Reader.
func (TextReader) Read(_ context.Context, path string) (*RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	return ParseText(f)
}

// JSONReader 读取 JSON 格式的记录集.
type JSONReader struct{}

// Read 实现 Reader.
func (JSONReader) Read(_ context.Context, path string) (*RecordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return DecodeJSON(data)
}

// DecodeJSON 解码 JSON 记录集.
func DecodeJSON(data []byte) (*RecordSet, error) {
	var rs RecordSet
	if err := sonic.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse record set: %w", err)
	}

	if len(rs.Counters) == 0 && len(rs.Mounts) == 0 && rs.Header.NProcs == 0 {
		return nil, ErrEmptyTrace
	}

	return &rs, nil
}

// EncodeJSON 把记录集写成 JSON，可供 JSONReader 再次读取.
func EncodeJSON(w io.Writer, rs *RecordSet) error {
	data, err := sonic.ConfigStd.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record set: %w", err)
	}

	_, err = w.Write(data)

	return err
}

// ParserReader 调用 darshan-parser 可执行文件.
type ParserReader struct {
	path string
	args []string
}

// NewParserReader 创建 ParserReader，parser_path 必须能在 PATH 中找到.
func NewParserReader(cfg configs.ReaderConfig) (Reader, error) {
	bin, err := exec.LookPath(cfg.ParserPath)
	if err != nil {
		return nil, fmt.Errorf("darshan-parser not found: %w", err)
	}

	return &ParserReader{path: bin, args: cfg.ParserArgs}, nil
}

// Read 实现 Reader.
func (p *ParserReader) Read(ctx context.Context, path string) (*RecordSet, error) {
	args := append(append([]string{}, p.args...), path)

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, p.path, args...)
	cmd.Stderr = &stderr

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create parser pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start darshan-parser: %w", err)
	}

	rs, parseErr := ParseText(out)
	// 解析出错时也要把管道读完，否则子进程可能阻塞
	_, _ = io.Copy(io.Discard, out)

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("darshan-parser failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if parseErr != nil {
		return nil, parseErr
	}

	return rs, nil
}

// AutoReader 根据扩展名选择读取器：.json -> json，.txt/.log -> text，其余交给 darshan-parser.
type AutoReader struct {
	cfg    configs.ReaderConfig
	text   Reader
	json   Reader
	mu     sync.Mutex
	parser Reader
}

// NewAutoReader 创建 AutoReader，darshan-parser 在第一次需要时才查找.
func NewAutoReader(cfg configs.ReaderConfig) (Reader, error) {
	return &AutoReader{cfg: cfg, text: TextReader{}, json: JSONReader{}}, nil
}

// Read 实现 Reader.
func (a *AutoReader) Read(ctx context.Context, path string) (*RecordSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return a.json.Read(ctx, path)
	case ".txt", ".log":
		return a.text.Read(ctx, path)
	}

	parser, err := a.parserReader()
	if err != nil {
		return nil, err
	}

	return parser.Read(ctx, path)
}

func (a *AutoReader) parserReader() (Reader, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.parser == nil {
		p, err := NewParserReader(a.cfg)
		if err != nil {
			return nil, err
		}

		a.parser = p
	}

	return a.parser, nil
}

// DumpReader 在读取成功后把记录集另存为 <dir>/<DumpName(path)>，便于离线复现.
type DumpReader struct {
	Reader
	dir string
}

// NewDumpReader 包装 r，dir 不存在时创建.
func NewDumpReader(r Reader, dir string) (*DumpReader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}

	return &DumpReader{Reader: r, dir: dir}, nil
}

// DumpName 返回 <文件名去扩展名>-<绝对路径的 xxhash>.json. 不同目录下的同名日志得到不同的文件名.
func DumpName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return base + "-" + strconv.FormatUint(xxhash.Sum64String(abs), 16) + ".json"
}

// Read 实现 Reader. 先写临时文件再 rename，读者不会看到写了一半的 dump.
// 写入失败时返回错误，该日志按失败处理.
func (d *DumpReader) Read(ctx context.Context, path string) (*RecordSet, error) {
	rs, err := d.Reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	name := DumpName(path)

	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	if err := EncodeJSON(tmp, rs); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return nil, err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write dump file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("rename dump file: %w", err)
	}

	return rs, nil
}

func init() {
	RegisterReader(ReaderText, func(configs.ReaderConfig) (Reader, error) { return TextReader{}, nil })
	RegisterReader(ReaderJSON, func(configs.ReaderConfig) (Reader, error) { return JSONReader{}, nil })
	RegisterReader(ReaderParser, NewParserReader)
	RegisterReader(ReaderAuto, NewAutoReader)
}
