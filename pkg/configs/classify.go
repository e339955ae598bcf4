package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultClassifyThreads  = 1       // 默认串行
	DefaultClassifyTimezone = "Local" // date 字段使用的时区
)

type (
	// ClassifyConfig 分类规则配置.
	ClassifyConfig struct {
		Threads             int         `mapstructure:"threads"               rule:"min=1,max=1024"`
		Timezone            string      `mapstructure:"timezone"              rule:"required,timezone"`
		StrictMountBoundary bool        `mapstructure:"strict_mount_boundary"` // 挂载点必须在路径分隔符处结束
		MountToFsName       []MountRule `mapstructure:"mount_to_fsname"       rule:"dive"`
	}

	// MountRule 挂载点到逻辑文件系统名的映射，Pattern 为从开头匹配的正则.
	MountRule struct {
		Pattern string `mapstructure:"pattern" rule:"required,regexp" json:"pattern"`
		FsName  string `mapstructure:"fsname"  rule:"required" json:"fsname"`
	}
)

// DefaultMountRules NERSC 与 ALCF 上常见的挂载点.
var DefaultMountRules = []MountRule{
	{Pattern: "/projects/radix-io", FsName: "mira-fs1"},
	{Pattern: "/scratch1", FsName: "scratch1"},
	{Pattern: "/scratch2", FsName: "scratch2"},
	{Pattern: "/scratch3", FsName: "scratch3"},
	{Pattern: "/global/cscratch1", FsName: "cscratch"},
	{Pattern: "/global/projecta", FsName: "projecta"},
	{Pattern: "/global/project", FsName: "project2"},
	{Pattern: "/var/opt/cray/dws/mounts/batch/.*_striped_scratch", FsName: "bb-shared"},
	{Pattern: "/var/opt/cray/dws/mounts/batch/.*_private_scratch", FsName: "bb-private"},
}

// setDefaults 设置分类配置的默认值.
func (c *ClassifyConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("classify.threads", DefaultClassifyThreads)
	v.SetDefault("classify.timezone", DefaultClassifyTimezone)
	v.SetDefault("classify.strict_mount_boundary", false)

	rules := make([]map[string]string, 0, len(DefaultMountRules))
	for _, r := range DefaultMountRules {
		rules = append(rules, map[string]string{"pattern": r.Pattern, "fsname": r.FsName})
	}

	v.SetDefault("classify.mount_to_fsname", rules)
}
