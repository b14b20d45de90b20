/*
 * @module service/evidence/store
 * @description 证据存储与最新证据视图，提供只追加写入和确定性的最新值解析
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 观测追加 -> 最新视图 -> 快照解析
 * @rules 每个 (资产, 证据键) 在视图中只有一行；同时间戳按插入序号决胜；置信度缺省为1.0
 * @dependencies metahub-service/service/models
 * @refs service/evaluator, service/assessment
 */

package evidence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"metahub-service/service/models"
)

// ErrInvalidObservation 观测缺少资产键或证据键
var ErrInvalidObservation = errors.New("证据观测缺少资产键或证据键")

// Resolver 证据解析接口，返回 (资产, 证据键) 的最新观测
type Resolver interface {
	Resolve(assetKey, evidenceKey string) (models.EvidenceObservation, bool)
}

// Store 证据存储接口
type Store interface {
	// Append 追加观测，存储负责分配插入序号
	Append(ctx context.Context, observations ...*models.EvidenceObservation) error
	// Latest 返回最新观测，不存在时返回 nil
	Latest(ctx context.Context, assetKey, evidenceKey string) (*models.EvidenceObservation, error)
	// LatestView 构建给定资产的最新证据快照，assetKeys 为空时包含全部资产
	LatestView(ctx context.Context, assetKeys []string) (*Snapshot, error)
	// History 返回按时间和插入序号排序的全部观测
	History(ctx context.Context, assetKey, evidenceKey string) ([]models.EvidenceObservation, error)
}

// normalize 校验并补全观测缺省值
func normalize(obs *models.EvidenceObservation, now time.Time) error {
	obs.AssetKey = strings.TrimSpace(obs.AssetKey)
	obs.EvidenceKey = strings.TrimSpace(obs.EvidenceKey)
	if obs.AssetKey == "" || obs.EvidenceKey == "" {
		return ErrInvalidObservation
	}
	if obs.ObservationTS.IsZero() {
		obs.ObservationTS = now
	}
	obs.ObservationTS = obs.ObservationTS.UTC()
	// 未设置视为完全可信，其余截断到 [0,1]
	switch {
	case obs.Confidence == 0:
		obs.Confidence = 1.0
	case obs.Confidence < 0:
		obs.Confidence = 0
	case obs.Confidence > 1:
		obs.Confidence = 1.0
	}
	return nil
}

// Snapshot 不可变的最新证据快照
type Snapshot struct {
	latest map[string]map[string]models.EvidenceObservation
}

// NewSnapshot 由任意顺序的观测构建快照，每个键保留最新的一行
func NewSnapshot(observations []models.EvidenceObservation) *Snapshot {
	s := &Snapshot{latest: make(map[string]map[string]models.EvidenceObservation)}
	for i := range observations {
		obs := observations[i]
		byKey, ok := s.latest[obs.AssetKey]
		if !ok {
			byKey = make(map[string]models.EvidenceObservation)
			s.latest[obs.AssetKey] = byKey
		}
		current, exists := byKey[obs.EvidenceKey]
		if !exists || obs.After(&current) {
			byKey[obs.EvidenceKey] = obs
		}
	}
	return s
}

// Resolve 实现 Resolver
func (s *Snapshot) Resolve(assetKey, evidenceKey string) (models.EvidenceObservation, bool) {
	if s == nil {
		return models.EvidenceObservation{}, false
	}
	obs, ok := s.latest[assetKey][evidenceKey]
	return obs, ok
}

// Rows 返回快照中的全部最新行，按资产键、证据键排序
func (s *Snapshot) Rows() []models.EvidenceObservation {
	if s == nil {
		return nil
	}
	rows := make([]models.EvidenceObservation, 0, s.Len())
	for _, byKey := range s.latest {
		for _, obs := range byKey {
			rows = append(rows, obs)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AssetKey != rows[j].AssetKey {
			return rows[i].AssetKey < rows[j].AssetKey
		}
		return rows[i].EvidenceKey < rows[j].EvidenceKey
	})
	return rows
}

// AssetRows 返回单个资产的最新行
func (s *Snapshot) AssetRows(assetKey string) []models.EvidenceObservation {
	if s == nil {
		return nil
	}
	byKey := s.latest[assetKey]
	rows := make([]models.EvidenceObservation, 0, len(byKey))
	for _, obs := range byKey {
		rows = append(rows, obs)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EvidenceKey < rows[j].EvidenceKey })
	return rows
}

// Len 快照行数
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, byKey := range s.latest {
		n += len(byKey)
	}
	return n
}

// sortHistory 按观测时间、插入序号升序
func sortHistory(rows []models.EvidenceObservation) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[j].After(&rows[i])
	})
}
