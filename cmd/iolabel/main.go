// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/iolabel/pkg/cmd"
)

//	@title			iolabel API
//	@version		0.3.0
//	@description	iolabel 对 Darshan I/O 日志进行分类，并通过 HTTP 提供已索引分类结果的查询.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

//	@BasePath	/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
