package main

import (
	"github.com/spf13/cobra"

	"metahub-service/service/assessment"
	"metahub-service/service/meta"
)

type analysisFlags struct {
	assets   string
	evidence string
	fields   []string
	template string
}

func (a *analysisFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.assets, "assets", "", "资产 JSON 文件（必填）")
	f.StringVar(&a.evidence, "evidence", "", "证据观测 JSON 文件")
	f.StringSliceVar(&a.fields, "fields", nil, "参与分析的字段ID，缺省为目录全部字段")
	f.StringVar(&a.template, "template", "", "以该模板综合得分作为资产得分")
	_ = cmd.MarkFlagRequired("assets")
}

func (a *analysisFlags) service(cmd *cobra.Command) (*assessment.Service, error) {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	in, err := loadInputs(a.assets, a.evidence)
	if err != nil {
		return nil, err
	}
	return offlineService(cmd.Context(), cat, in)
}

func (a *analysisFlags) request() assessment.AnalysisRequest {
	return assessment.AnalysisRequest{Fields: a.fields, TemplateID: a.template}
}

func newGapsCmd() *cobra.Command {
	var flags analysisFlags
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "输出字段缺口报告与分阶段整改计划",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			plan, err := svc.Plan(cmd.Context(), flags.request())
			if err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newRollupCmd() *cobra.Command {
	var (
		flags     analysisFlags
		dimension string
	)
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "按维度分组汇总覆盖率与得分",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := flags.service(cmd)
			if err != nil {
				return err
			}
			req := flags.request()
			req.Dimension = meta.Dimension(dimension)
			out, err := svc.Rollup(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&dimension, "dimension", string(meta.DimensionConnector), "汇总维度 connector|schema|domain|owner|asset_type")
	return cmd
}
