package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"metahub-service/service/assessment"
	"metahub-service/service/catalog"
	"metahub-service/service/evidence"
	"metahub-service/service/fetcher"
	"metahub-service/service/models"

	"github.com/spf13/cobra"
)

func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return catalog.Builtin()
	}
	return catalog.LoadFile(path)
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

// inputs 本地资产与证据
type inputs struct {
	assets   []models.AssetRecord
	evidence []models.EvidenceObservation
}

func loadInputs(assetsPath, evidencePath string) (*inputs, error) {
	in := &inputs{}
	if err := readJSON(assetsPath, &in.assets); err != nil {
		return nil, err
	}
	if evidencePath != "" {
		if err := readJSON(evidencePath, &in.evidence); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// offlineService 基于内存拉取器与证据存储构建的评估服务
func offlineService(ctx context.Context, cat *catalog.Catalog, in *inputs) (*assessment.Service, error) {
	store := evidence.NewMemoryStore()
	for i := range in.evidence {
		if err := store.Append(ctx, &in.evidence[i]); err != nil {
			return nil, err
		}
	}
	return assessment.NewService(assessment.Dependencies{
		Catalog:  cat,
		Fetcher:  fetcher.NewStaticFetcher(in.assets...),
		Evidence: store,
	}), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
