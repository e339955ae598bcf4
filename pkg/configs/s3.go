package configs

import "github.com/spf13/viper"

// S3Config 兼容 S3 的对象存储（MinIO 等），用于读取 s3://bucket/key 形式的日志输入.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          rule:"required,hostname_port"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
	// DownloadDir 为空时下载到临时目录.
	DownloadDir string `mapstructure:"download_dir"`
}

// GetEndpointURL 带协议的端点地址.
func (c *S3Config) GetEndpointURL() string {
	if c.UseSSL {
		return "https://" + c.Endpoint
	}

	return "http://" + c.Endpoint
}

func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.access_key_id", "minioadmin")
	v.SetDefault("s3.secret_access_key", "minioadmin")
	v.SetDefault("s3.use_ssl", false)
	v.SetDefault("s3.bucket_name", "darshan-logs")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.download_dir", "")
}
