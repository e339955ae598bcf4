// Package s3 处理 S3 存储操作：把 s3://bucket/key 形式的日志输入下载到本地目录.
package s3

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/breaker"
	nlog "github.com/yeisme/iolabel/pkg/log"
)

// Scheme s3 输入前缀.
const Scheme = "s3://"

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	cfg configs.S3Config
	cb  *breaker.Breaker
}

// New 初始化 MinIO 客户端，下载操作受熔断器保护.
func New(_ context.Context, cfg configs.S3Config, cbCfg configs.CircuitBreakerConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("iolabel", configs.AppVersion)

	return &Client{Client: cli, cfg: cfg, cb: breaker.New("s3-fetch", cbCfg)}, nil
}

// IsURI 判断参数是否为 s3:// 输入.
func IsURI(arg string) bool {
	return strings.HasPrefix(arg, Scheme)
}

// ParseURI 解析 s3://bucket/key；省略 bucket（s3:///key）时使用配置中的默认 bucket.
func ParseURI(uri, defaultBucket string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, Scheme), "/")
	if bucket == "" {
		bucket = defaultBucket
	}

	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri: %s", uri)
	}

	return bucket, key, nil
}

// hasMeta 判断 key 是否包含 glob 元字符.
func hasMeta(key string) bool {
	return strings.ContainsAny(key, `*?[\`)
}

// staticPrefix 返回 glob 中第一个元字符之前的部分，用作 ListObjects 前缀.
func staticPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}

	return pattern
}

// Fetch 下载 uri 指向的对象（key 可以是 glob）到 dir，保留 key 的目录结构，返回本地路径.
func (c *Client) Fetch(ctx context.Context, uri, dir string) ([]string, error) {
	bucket, key, err := ParseURI(uri, c.cfg.BucketName)
	if err != nil {
		return nil, err
	}

	keys := []string{key}

	if hasMeta(key) {
		keys, err = c.match(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(keys))

	for _, k := range keys {
		local := filepath.Join(dir, bucket, filepath.FromSlash(k))

		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return nil, fmt.Errorf("create download dir: %w", err)
		}

		err := c.cb.Execute(func() error {
			return c.FGetObject(ctx, bucket, k, local, minio.GetObjectOptions{})
		})
		if err != nil {
			return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, k, err)
		}

		paths = append(paths, local)
	}

	nlog.Component("s3").Debug().Str("uri", uri).Int("objects", len(paths)).Msg("s3 objects fetched")

	return paths, nil
}

func (c *Client) match(ctx context.Context, bucket, pattern string) ([]string, error) {
	var keys []string

	err := c.cb.Execute(func() error {
		for obj := range c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: staticPrefix(pattern), Recursive: true}) {
			if obj.Err != nil {
				return obj.Err
			}

			ok, err := path.Match(pattern, obj.Key)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}

			if ok {
				keys = append(keys, obj.Key)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, pattern, err)
	}

	return keys, nil
}

// HealthCheck 简单的健康检查，检查默认 bucket 是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.cfg.BucketName)
	return err
}
