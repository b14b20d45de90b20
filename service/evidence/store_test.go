/*
 * @module service/evidence/store_test
 * @description 证据存储测试，覆盖最新视图、同时间戳决胜与置信度缺省
 * @architecture 测试层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 构造观测 -> 写入存储 -> 校验视图
 * @rules 内存与数据库两种实现行为一致
 * @dependencies github.com/stretchr/testify, metahub-service/testutil
 * @refs service/evidence/store.go
 */

package evidence

import (
	"context"
	"testing"
	"time"

	"metahub-service/service/models"
	"metahub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func storesUnderTest(t *testing.T) map[string]Store {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   NewGormStore(tdb.DB),
	}
}

// TestLatestPicksMostRecent 测试最新视图取最近时间戳的观测
func TestLatestPicksMostRecent(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx,
				testutil.NewObservation("a1", "owner.present", false, t0),
				testutil.NewObservation("a1", "owner.present", true, t0.Add(time.Hour)),
				testutil.NewObservation("a1", "owner.present", "stale", t0.Add(-time.Hour)),
			))

			latest, err := store.Latest(ctx, "a1", "owner.present")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, true, latest.Value.Data)

			missing, err := store.Latest(ctx, "a1", "lineage.present")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

// TestLatestTieBrokenByInsertionOrder 测试同时间戳时后插入者胜出
func TestLatestTieBrokenByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx, testutil.NewObservation("a1", "pk.present", "first", ts)))
			require.NoError(t, store.Append(ctx, testutil.NewObservation("a1", "pk.present", "second", ts)))

			latest, err := store.Latest(ctx, "a1", "pk.present")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, "second", latest.Value.Data)

			view, err := store.LatestView(ctx, []string{"a1"})
			require.NoError(t, err)
			assert.Equal(t, 1, view.Len())
			obs, ok := view.Resolve("a1", "pk.present")
			require.True(t, ok)
			assert.Equal(t, "second", obs.Value.Data)

			history, err := store.History(ctx, "a1", "pk.present")
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, "first", history[0].Value.Data)
		})
	}
}

// TestLatestViewFiltersAssets 测试最新视图按资产过滤且每键一行
func TestLatestViewFiltersAssets(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx,
				testutil.NewObservation("a1", "k1", 1, ts),
				testutil.NewObservation("a1", "k1", 2, ts.Add(time.Minute)),
				testutil.NewObservation("a1", "k2", 3, ts),
				testutil.NewObservation("a2", "k1", 4, ts),
			))

			view, err := store.LatestView(ctx, []string{"a1"})
			require.NoError(t, err)
			assert.Equal(t, 2, view.Len())
			_, ok := view.Resolve("a2", "k1")
			assert.False(t, ok)

			all, err := store.LatestView(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, all.Len())
			rows := all.Rows()
			assert.Equal(t, "a1", rows[0].AssetKey)
			assert.Equal(t, "k1", rows[0].EvidenceKey)
		})
	}
}

// TestAppendDefaults 测试置信度缺省与非法观测
func TestAppendDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	obs := &models.EvidenceObservation{AssetKey: "a1", EvidenceKey: "k", Value: models.JSONBAny{Data: "x"}}
	require.NoError(t, store.Append(ctx, obs))
	assert.Equal(t, 1.0, obs.Confidence)
	assert.False(t, obs.ObservationTS.IsZero())
	assert.Equal(t, int64(1), obs.Seq)

	err := store.Append(ctx, &models.EvidenceObservation{AssetKey: " ", EvidenceKey: "k"})
	assert.ErrorIs(t, err, ErrInvalidObservation)
}

// TestAppendClampsConfidence 测试置信度截断到 [0,1]
func TestAppendClampsConfidence(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				in   float64
				want float64
			}{
				{0, 1.0},
				{-0.4, 0},
				{0.35, 0.35},
				{1, 1},
				{7, 1.0},
			}
			for _, tt := range tests {
				obs := testutil.NewObservation("a1", "k", true, time.Now())
				obs.Confidence = tt.in
				require.NoError(t, store.Append(ctx, obs))
				assert.Equal(t, tt.want, obs.Confidence, "输入 %v", tt.in)
			}
		})
	}
}

// TestGormAppendSeqIsUnique 测试序号唯一索引拒绝重复，冲突时整批重新分配
func TestGormAppendSeqIsUnique(t *testing.T) {
	ctx := context.Background()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	store := NewGormStore(tdb.DB)

	first := testutil.NewObservation("a1", "k", 1, time.Now())
	require.NoError(t, store.Append(ctx, first))
	dup := testutil.NewObservation("a1", "k", 2, time.Now())
	dup.Seq = first.Seq
	err := tdb.DB.Create(dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 模拟并发写入者在读取最大序号之后抢先写入同一序号
	raced := 0
	require.NoError(t, tdb.DB.Callback().Create().Before("gorm:create").Register("test:seq_race", func(tx *gorm.DB) {
		if raced > 0 {
			return
		}
		raced++
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO evidence_observations (id, seq, observation_ts, asset_key, evidence_key, confidence) VALUES (?, ?, ?, ?, ?, ?)",
			"racer", first.Seq+1, time.Now(), "a9", "k", 1.0)
	}))

	a := testutil.NewObservation("a2", "k", true, time.Now())
	b := testutil.NewObservation("a3", "k", true, time.Now())
	require.NoError(t, store.Append(ctx, a, b))
	assert.Equal(t, 1, raced)
	assert.Equal(t, first.Seq+1, a.Seq)
	assert.Equal(t, first.Seq+2, b.Seq)

	var seqs []int64
	require.NoError(t, tdb.DB.Model(&models.EvidenceObservation{}).Order("seq").Pluck("seq", &seqs).Error)
	assert.Equal(t, []int64{first.Seq, first.Seq + 1, first.Seq + 2}, seqs)
}

// TestNilSnapshotResolvesNothing 测试空快照
func TestNilSnapshotResolvesNothing(t *testing.T) {
	var s *Snapshot
	_, ok := s.Resolve("a", "k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}
