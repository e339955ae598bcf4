package classify

// fsToSystem 逻辑文件系统名到计算系统的固定映射.
var fsToSystem = map[string]string{
	"mira-fs1":   "mira",
	"scratch1":   "edison",
	"scratch2":   "edison",
	"scratch3":   "edison",
	"cscratch":   "cori",
	"bb-shared":  "cori",
	"bb-private": "cori",
}

// ComputeSystem 返回文件系统所属的计算系统，未知时为 unknown.
func ComputeSystem(fsName string) string {
	if sys, ok := fsToSystem[fsName]; ok {
		return sys
	}

	return Unknown
}
