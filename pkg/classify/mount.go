package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yeisme/iolabel/pkg/configs"
)

// UnknownMount 路径不在任何挂载点下时的桶名（例如 STDIO 的 <STDOUT>）.
const UnknownMount = "_unknown"

// MountTable 最长前缀挂载点匹配.
type MountTable struct {
	mounts []string
	strict bool
}

// NewMountTable 创建挂载表.
// strict 为 true 时，匹配必须在路径结尾或 / 处结束，/scratch1 不再匹配 /scratch10/x.
func NewMountTable(mounts []string, strict bool) *MountTable {
	return &MountTable{mounts: append([]string(nil), mounts...), strict: strict}
}

// Resolve 返回 path 所在的挂载点，没有匹配时返回 UnknownMount.
func (t *MountTable) Resolve(path string) string {
	best := ""
	found := false

	for _, m := range t.mounts {
		if !t.matches(path, m) {
			continue
		}

		if !found || len(m) > len(best) || (len(m) == len(best) && m < best) {
			best = m
			found = true
		}
	}

	if !found {
		return UnknownMount
	}

	return best
}

func (t *MountTable) matches(path, mount string) bool {
	if !strings.HasPrefix(path, mount) {
		return false
	}

	if !t.strict || len(path) == len(mount) || strings.HasSuffix(mount, "/") {
		return true
	}

	return path[len(mount)] == '/'
}

type fsRule struct {
	configs.MountRule
	re *regexp.Regexp
}

// projectRule /project 总是映射到 mira-fs1，排在用户规则之后.
var projectRule = configs.MountRule{Pattern: "/project", FsName: "mira-fs1"}

// FsNamer 把挂载点路径转换为逻辑文件系统名.
type FsNamer struct {
	rules []fsRule
}

// NewFsNamer 按给定顺序编译规则，正则无效时返回错误.
func NewFsNamer(rules []configs.MountRule) (*FsNamer, error) {
	n := &FsNamer{rules: make([]fsRule, 0, len(rules)+1)}

	for _, r := range append(append([]configs.MountRule(nil), rules...), projectRule) {
		// 只从开头匹配
		re, err := regexp.Compile("^(?:" + r.Pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid mount pattern %q: %w", r.Pattern, err)
		}

		n.rules = append(n.rules, fsRule{MountRule: r, re: re})
	}

	return n, nil
}

// Name 返回第一个匹配规则的文件系统名；"/" 与未匹配的挂载点原样返回.
func (n *FsNamer) Name(mount string) string {
	if mount == "/" {
		return mount
	}

	for _, r := range n.rules {
		if r.re.MatchString(mount) {
			return r.FsName
		}
	}

	return mount
}

// Rules 返回规则列表（包含内置的 /project 规则）.
func (n *FsNamer) Rules() []configs.MountRule {
	out := make([]configs.MountRule, 0, len(n.rules))
	for _, r := range n.rules {
		out = append(out, r.MountRule)
	}

	return out
}
