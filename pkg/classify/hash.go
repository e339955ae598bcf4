package classify

import (
	"crypto/md5" //nolint:gosec // 内容标识，不用于安全场景
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile 计算文件内容的 md5（十六进制小写）.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return HashReader(f)
}

// HashReader 计算 r 中全部字节的 md5.
func HashReader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
