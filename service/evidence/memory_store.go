/*
 * @module service/evidence/memory_store
 * @description 内存证据存储，用于进程内评估和测试
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 观测追加 -> 内存切片 -> 最新视图
 * @rules 只追加；插入序号单调递增
 * @dependencies metahub-service/service/models
 * @refs service/evidence/store.go
 */

package evidence

import (
	"context"
	"sync"
	"time"

	"metahub-service/service/models"
)

// MemoryStore 内存证据存储
type MemoryStore struct {
	mu   sync.RWMutex
	rows []models.EvidenceObservation
	seq  int64
	now  func() time.Time
}

// NewMemoryStore 创建内存证据存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append 追加观测
func (m *MemoryStore) Append(ctx context.Context, observations ...*models.EvidenceObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, obs := range observations {
		if err := normalize(obs, now); err != nil {
			return err
		}
	}
	for _, obs := range observations {
		m.seq++
		obs.Seq = m.seq
		if obs.CreatedAt.IsZero() {
			obs.CreatedAt = now
		}
		m.rows = append(m.rows, *obs)
	}
	return nil
}

// Latest 返回最新观测
func (m *MemoryStore) Latest(ctx context.Context, assetKey, evidenceKey string) (*models.EvidenceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.EvidenceObservation
	for i := range m.rows {
		row := &m.rows[i]
		if row.AssetKey != assetKey || row.EvidenceKey != evidenceKey {
			continue
		}
		if latest == nil || row.After(latest) {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// LatestView 构建最新证据快照
func (m *MemoryStore) LatestView(ctx context.Context, assetKeys []string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]struct{}, len(assetKeys))
	for _, k := range assetKeys {
		wanted[k] = struct{}{}
	}
	selected := make([]models.EvidenceObservation, 0, len(m.rows))
	for _, row := range m.rows {
		if len(wanted) > 0 {
			if _, ok := wanted[row.AssetKey]; !ok {
				continue
			}
		}
		selected = append(selected, row)
	}
	return NewSnapshot(selected), nil
}

// History 返回观测历史
func (m *MemoryStore) History(ctx context.Context, assetKey, evidenceKey string) ([]models.EvidenceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []models.EvidenceObservation
	for _, row := range m.rows {
		if row.AssetKey == assetKey && row.EvidenceKey == evidenceKey {
			rows = append(rows, row)
		}
	}
	sortHistory(rows)
	return rows, nil
}
