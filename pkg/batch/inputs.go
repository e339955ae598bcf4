package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoFetcher 出现 s3:// 输入但没有配置对象存储.
var ErrNoFetcher = errors.New("batch: remote input requires an object storage client")

const remoteScheme = "s3://"

// Fetcher 把远端输入下载到本地目录.
type Fetcher interface {
	Fetch(ctx context.Context, uri, dir string) ([]string, error)
}

// ExpandInputs 展开命令行参数：含 glob 元字符的参数按文件系统展开（绕过 ARG_MAX 限制），
// s3:// 参数通过 fetcher 下载到 dir，其余原样保留.
func ExpandInputs(ctx context.Context, args []string, fetcher Fetcher, dir string, logger *zerolog.Logger) ([]string, error) {
	var paths []string

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, remoteScheme):
			if fetcher == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoFetcher, arg)
			}

			local, err := fetcher.Fetch(ctx, arg, dir)
			if err != nil {
				return nil, err
			}

			if len(local) == 0 {
				logger.Warn().Str("pattern", arg).Msg("no objects matched")
			}

			paths = append(paths, local...)
		case strings.ContainsAny(arg, "*?["):
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}

			if len(matches) == 0 {
				logger.Warn().Str("pattern", arg).Msg("no files matched")
			}

			paths = append(paths, matches...)
		default:
			paths = append(paths, arg)
		}
	}

	return paths, nil
}
