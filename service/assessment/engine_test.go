package assessment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"metahub-service/service/catalog"
	"metahub-service/service/evidence"
	"metahub-service/service/meta"
	"metahub-service/service/models"
	"metahub-service/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func observe(rows *[]models.EvidenceObservation, asset, key string, value interface{}, confidence float64) {
	obs := testutil.NewObservation(asset, key, value, fixedNow.Add(-time.Hour))
	obs.Confidence = confidence
	obs.Seq = int64(len(*rows) + 1)
	*rows = append(*rows, *obs)
}

// population 生成证据分布各异的资产群体
func population(n int) ([]models.AssetRecord, []models.EvidenceObservation) {
	var (
		assets []models.AssetRecord
		rows   []models.EvidenceObservation
	)
	for i := 0; i < n; i++ {
		guid := fmt.Sprintf("asset-%03d", i)
		opts := []testutil.AssetOption{}
		if i%7 == 0 {
			opts = append(opts, testutil.WithAssetType(models.AssetTypeColumn))
		}
		if i%2 == 0 {
			opts = append(opts, testutil.WithAttribute("DESCRIPTION", "described"))
		}
		if i%3 != 0 {
			opts = append(opts, testutil.WithAttribute("OWNER_USERS", []interface{}{"alice"}))
		}
		assets = append(assets, testutil.NewAsset(guid, opts...))

		confidence := 0.5 + float64(i%5)/10
		if i%3 == 0 {
			observe(&rows, guid, "catalog.owner_users", []interface{}{}, confidence)
		} else {
			observe(&rows, guid, "catalog.owner_users", []interface{}{"alice"}, confidence)
		}
		if i%2 == 0 {
			observe(&rows, guid, "catalog.description", "described", 1)
		} else if i%4 == 1 {
			observe(&rows, guid, "snowflake.comment", "from comment", 0.7)
		}
		switch i % 4 {
		case 1:
			observe(&rows, guid, "catalog.lineage.present", true, 1)
		case 2:
			observe(&rows, guid, "catalog.lineage.present", "not-a-bool", 1)
			if i%8 == 2 {
				observe(&rows, guid, "dbt.lineage.present", true, 0.9)
			}
		}
		if i%5 != 0 {
			observe(&rows, guid, "snowflake.pk.present", true, 0.8)
		}
		observe(&rows, guid, "catalog.tags.count", i%3, 1)
	}
	return assets, rows
}

func engines(t *testing.T) (*RowAdapter, *BulkAdapter) {
	cat := catalog.MustBuiltin()
	return NewRowAdapter(cat, WithClock(fixedClock)),
		NewBulkAdapter(cat, 4, WithClock(fixedClock)).WithChunkSize(7)
}

// TestAdaptersAgree 测试逐行与批量适配器结果一致
func TestAdaptersAgree(t *testing.T) {
	row, bulk := engines(t)
	assets, rows := population(60)

	templates := []string{"talk_to_data_gate", "core_weighted", "qtriplet_core", "maturity_core", "compliance_checklist"}
	for _, tmpl := range templates {
		t.Run(tmpl, func(t *testing.T) {
			req := Request{
				RunID:      "run-fixed",
				TemplateID: tmpl,
				ProfileID:  "self_service_discovery",
				Scope:      "tenant-test:*:*:*:*",
				Assets:     assets,
				Snapshot:   evidence.NewSnapshot(rows),
			}
			rowOut, err := row.Run(context.Background(), req)
			require.NoError(t, err)
			bulkOut, err := bulk.Run(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, "row", rowOut.Run.Adapter)
			assert.Equal(t, "bulk", bulkOut.Run.Adapter)
			assert.Equal(t, rowOut.Run.RunTS, bulkOut.Run.RunTS)
			assert.Equal(t, rowOut.ParameterResults, bulkOut.ParameterResults)
			assert.Equal(t, rowOut.AssessmentResults, bulkOut.AssessmentResults)
			require.Len(t, bulkOut.Assets, len(assets))
			for i := range assets {
				assert.Equal(t, assets[i].GUID, bulkOut.Assets[i].AssetKey, "结果按请求资产顺序输出")
				assert.Equal(t, rowOut.Assets[i].Signals, bulkOut.Assets[i].Signals)
				assert.Equal(t, rowOut.Assets[i].UseCase, bulkOut.Assets[i].UseCase)
			}
		})
	}
}

// TestWeightedScenario 测试加权方法论单资产结果
func TestWeightedScenario(t *testing.T) {
	row, _ := engines(t)
	var rows []models.EvidenceObservation
	observe(&rows, "g1", "catalog.owner_users", []interface{}{"alice"}, 1)
	observe(&rows, "g1", "catalog.description", "", 1)
	observe(&rows, "g1", "snowflake.pk.present", true, 0.8)
	observe(&rows, "g1", "catalog.tags.count", 0, 1)

	req := Request{TemplateID: "core_weighted", Assets: []models.AssetRecord{testutil.NewAsset("g1")}, Snapshot: evidence.NewSnapshot(rows)}
	out, err := row.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, out.AssessmentResults, 1)
	res := out.AssessmentResults[0]
	assert.Equal(t, string(meta.StatusInProgress), res.Status)
	require.NotNil(t, res.QualityScore)
	assert.InDelta(t, 3.0/5.5, *res.QualityScore, 1e-9)
	assert.InDelta(t, 5.5/6.5, *res.Coverage, 1e-9)
	assert.InDelta(t, 0.95, *res.Confidence, 1e-9)
	assert.InDelta(t, *res.QualityScore, *res.CompositeScore, 1e-9)
	assert.Equal(t, 0, res.FailedRequiredCount)

	byParam := make(map[string]models.ParameterResult)
	for _, p := range out.ParameterResults {
		byParam[p.ParameterID] = p
	}
	lineage := byParam["has_lineage"]
	assert.Equal(t, string(meta.StateUnknown), lineage.State)
	assert.Nil(t, lineage.Score)
	assert.Empty(t, lineage.EvidenceKeyUsed)
	assert.Equal(t, "catalog.owner_users", byParam["has_owner"].EvidenceKeyUsed)
	assert.Equal(t, []string{"has_owner", "has_description", "has_lineage", "has_primary_key", "has_tags"}, []string(out.Run.ParameterIDs))

	gate, err := row.Run(context.Background(), Request{TemplateID: "talk_to_data_gate", Assets: req.Assets, Snapshot: req.Snapshot})
	require.NoError(t, err)
	assert.Equal(t, string(meta.StatusFailedRequirement), gate.AssessmentResults[0].Status)
	assert.Equal(t, 0.0, *gate.AssessmentResults[0].CompositeScore)
}

// TestNoEvidence 测试无证据时得分为空
func TestNoEvidence(t *testing.T) {
	_, bulk := engines(t)
	out, err := bulk.Run(context.Background(), Request{
		TemplateID: "talk_to_data_gate",
		Assets:     []models.AssetRecord{testutil.NewAsset("g1")},
		Snapshot:   evidence.NewSnapshot(nil),
	})
	require.NoError(t, err)
	res := out.AssessmentResults[0]
	assert.Equal(t, string(meta.StatusInsufficientEvidence), res.Status)
	assert.Nil(t, res.QualityScore)
	assert.Nil(t, res.CompositeScore)
	assert.Equal(t, 0.0, *res.Coverage)
}

// TestRequestErrors 测试请求错误在计算前返回
func TestRequestErrors(t *testing.T) {
	row, bulk := engines(t)
	assets := []models.AssetRecord{testutil.NewAsset("g1")}

	for _, e := range []Engine{row, bulk} {
		_, err := e.Run(context.Background(), Request{TemplateID: "missing", Assets: assets})
		assert.ErrorIs(t, err, ErrTemplateNotFound)

		_, err = e.Run(context.Background(), Request{TemplateID: "core_weighted", ProfileID: "missing", Assets: assets})
		assert.ErrorIs(t, err, ErrProfileNotFound)

		_, err = e.Run(context.Background(), Request{TemplateID: "core_weighted", Assets: append(assets, assets[0])})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = e.Run(context.Background(), Request{})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}

	_, err := New("columnar", catalog.MustBuiltin(), 1)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// TestCancelledContext 测试取消的上下文中止运行
func TestCancelledContext(t *testing.T) {
	row, bulk := engines(t)
	assets, rows := population(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, e := range []Engine{row, bulk} {
		out, err := e.Run(ctx, Request{TemplateID: "core_weighted", Assets: assets, Snapshot: evidence.NewSnapshot(rows)})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, out)
	}
}

// TestUseCaseOutcome 测试画像评估结果挂载到资产结果
func TestUseCaseOutcome(t *testing.T) {
	row, _ := engines(t)
	asset := testutil.NewAsset("g1",
		testutil.WithAttribute("OWNER_USERS", []interface{}{}),
		testutil.WithAttribute("DESCRIPTION", "orders fact table"),
		testutil.WithAttribute("HAS_LINEAGE", false))

	out, err := row.Run(context.Background(), Request{
		TemplateID: "core_weighted",
		ProfileID:  "self_service_discovery",
		Assets:     []models.AssetRecord{asset},
	})
	require.NoError(t, err)
	uc := out.Assets[0].UseCase
	require.NotNil(t, uc)
	assert.Equal(t, []string{"OWNERSHIP"}, uc.Blockers)
	assert.Equal(t, meta.ReadinessNotReady, uc.Readiness)
	assert.Equal(t, meta.StatePresent, out.Assets[0].Signals["SEMANTICS"].State)
}

func TestMetrics(t *testing.T) {
	row, _ := engines(t)
	assets, rows := population(5)
	out, err := row.Run(context.Background(), Request{TemplateID: "core_weighted", Assets: assets, Snapshot: evidence.NewSnapshot(rows)})
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRun(out, 50*time.Millisecond)
	m.IncrementOutcome("failed")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Runs.WithLabelValues("failed")))

	var total float64
	for state := range map[string]bool{"PRESENT": true, "ABSENT": true, "UNKNOWN": true} {
		total += promtest.ToFloat64(m.ParameterStates.WithLabelValues("core_weighted", state))
	}
	assert.Equal(t, float64(len(out.ParameterResults)), total)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveRun(out, time.Second)
		nilMetrics.IncrementOutcome("completed")
	})
}
