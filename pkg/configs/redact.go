package configs

// redactedValue 替换敏感字段的占位符.
const redactedValue = "******"

// Redacted 返回隐藏了密码与密钥的副本，用于打印配置. 空值保持为空，便于看出是否配置.
func (c AppConfig) Redacted() AppConfig {
	for _, s := range []*string{
		&c.DB.Password,
		&c.S3.SecretAccessKey,
		&c.KV.Redis.Password,
		&c.KV.NATS.Password,
		&c.MQ.Common.Password,
		&c.MQ.NATS.JWT,
		&c.MQ.NATS.NKey,
		&c.MQ.Redis.Password,
	} {
		if *s != "" {
			*s = redactedValue
		}
	}

	return c
}
