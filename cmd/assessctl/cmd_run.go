package main

import (
	"github.com/spf13/cobra"

	"metahub-service/service/assessment"
)

func newRunCmd() *cobra.Command {
	var flags struct {
		assets   string
		evidence string
		template string
		profile  string
		adapter  string
	}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "对本地资产执行评估模板并输出结果",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			in, err := loadInputs(flags.assets, flags.evidence)
			if err != nil {
				return err
			}
			svc, err := offlineService(cmd.Context(), cat, in)
			if err != nil {
				return err
			}
			req := assessment.EvaluateRequest{
				TemplateID: flags.template,
				ProfileID:  flags.profile,
				Assets:     in.assets,
				Adapter:    assessment.AdapterKind(flags.adapter),
			}
			out, err := svc.Evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.assets, "assets", "", "资产 JSON 文件（必填）")
	f.StringVar(&flags.evidence, "evidence", "", "证据观测 JSON 文件")
	f.StringVar(&flags.template, "template", "", "评估模板ID（必填）")
	f.StringVar(&flags.profile, "profile", "", "用例画像ID")
	f.StringVar(&flags.adapter, "adapter", string(assessment.AdapterBulk), "执行适配器 bulk|row")

	_ = cmd.MarkFlagRequired("assets")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
