// assessctl 离线评估工具：在本地资产与证据文件上执行评估、缺口分析和目录校验，不落库。
//
// Usage:
//
//	assessctl run --assets assets.json [--evidence evidence.json] --template T [--profile P] [--adapter bulk|row]
//	assessctl gaps --assets assets.json [--evidence evidence.json] [--fields a,b] [--template T]
//	assessctl rollup --assets assets.json --dimension connector
//	assessctl catalog validate FILE
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "assessctl",
		Short: "元数据评估命令行工具",
		Long:  "assessctl 在本地 JSON 资产与证据文件上运行评估模板、缺口报告与维度汇总，\n结果以 JSON 输出到标准输出，不写入运行台账。",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().String("catalog", "", "评估目录 YAML 文件，缺省使用内置目录")
	root.AddCommand(newRunCmd())
	root.AddCommand(newGapsCmd())
	root.AddCommand(newRollupCmd())
	root.AddCommand(newCatalogCmd())
	root.Version = version
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
