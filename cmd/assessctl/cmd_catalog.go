package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"metahub-service/service/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "评估目录工具",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "校验评估目录 YAML 文件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "目录有效: %s\n", args[0])
			fmt.Fprintf(out, "  字段:   %d\n", len(cat.Fields()))
			fmt.Fprintf(out, "  信号:   %d\n", len(cat.Signals()))
			fmt.Fprintf(out, "  参数:   %d\n", len(cat.Parameters()))
			fmt.Fprintf(out, "  模板:   %d\n", len(cat.Templates()))
			fmt.Fprintf(out, "  画像:   %d\n", len(cat.Profiles()))
			return nil
		},
	})
	return cmd
}
