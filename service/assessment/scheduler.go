/*
 * @module service/assessment/scheduler
 * @description 定时评估调度器，按 cron 表达式周期性触发评估运行
 * @architecture 分层架构 - 服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 加载调度文件 -> 注册cron任务 -> 到点获取调度锁 -> 触发评估 -> 记录结果
 * @rules cron 表达式包含秒字段（秒 分 时 日 月 周）；配置分布式锁时同一调度只在一个副本上执行
 * @dependencies github.com/robfig/cron/v3, gopkg.in/yaml.v3, metahub-service/service/distributed_lock
 * @refs service/assessment/service.go
 */

package assessment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"metahub-service/service/distributed_lock"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Trigger 触发评估运行的能力
type Trigger interface {
	Trigger(ctx context.Context, req TriggerRequest) (*TriggerResult, error)
}

// ScheduleSpec 定时评估定义
type ScheduleSpec struct {
	ID      string         `json:"id" yaml:"id"`
	Cron    string         `json:"cron" yaml:"cron"`
	Enabled *bool          `json:"enabled,omitempty" yaml:"enabled"`
	Request TriggerRequest `json:"request" yaml:"request"`
}

// IsEnabled 未声明时默认启用
func (s ScheduleSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type scheduleFile struct {
	Schedules []ScheduleSpec `yaml:"schedules"`
}

// LoadSchedules 读取 YAML 调度文件
func LoadSchedules(path string) ([]ScheduleSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开调度文件失败: %w", err)
	}
	defer f.Close()
	return DecodeSchedules(f)
}

// DecodeSchedules 解析 YAML 调度定义
func DecodeSchedules(r io.Reader) ([]ScheduleSpec, error) {
	var doc scheduleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析调度文件失败: %w", err)
	}
	seen := make(map[string]bool, len(doc.Schedules))
	for _, s := range doc.Schedules {
		if s.ID == "" || s.Cron == "" {
			return nil, fmt.Errorf("调度定义缺少 id 或 cron")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("调度ID重复: %s", s.ID)
		}
		seen[s.ID] = true
	}
	return doc.Schedules, nil
}

// ScheduleStatus 调度执行状态
type ScheduleStatus struct {
	ID        string     `json:"id"`
	Cron      string     `json:"cron"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastRunID string     `json:"last_run_id,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Scheduler 定时评估调度器
type Scheduler struct {
	trigger Trigger
	cron    *cron.Cron
	locker  *distributed_lock.LockExecutor
	lockTTL time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	entries map[string]cron.EntryID
	status  map[string]*ScheduleStatus
	started bool
}

// NewScheduler 创建调度器
func NewScheduler(trigger Trigger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		trigger: trigger,
		cron:    cron.New(cron.WithSeconds()),
		lockTTL: DefaultLockTTL,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
		status:  make(map[string]*ScheduleStatus),
	}
}

// SetDistributedLock 设置分布式锁
func (s *Scheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	if lock == nil {
		s.locker = nil
		return
	}
	s.locker = distributed_lock.NewLockExecutor(lock)
	slog.Info("定时评估调度器已启用分布式锁")
}

// Add 注册调度，已存在的同ID调度会被替换
func (s *Scheduler) Add(spec ScheduleSpec) error {
	if !spec.IsEnabled() {
		slog.Info("跳过未启用的定时评估", "schedule_id", spec.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[spec.ID]; ok {
		s.cron.Remove(old)
	}
	id, err := s.cron.AddFunc(spec.Cron, func() { s.execute(spec) })
	if err != nil {
		slog.Error("添加定时评估失败",
			"schedule_id", spec.ID,
			"cron_expression", spec.Cron,
			"error", err,
			"help", "Cron表达式需要6个字段（秒 分 时 日 月 周），例如：0 0 2 * * *（每天2点）")
		return fmt.Errorf("添加定时评估失败: %w", err)
	}
	s.entries[spec.ID] = id
	s.status[spec.ID] = &ScheduleStatus{ID: spec.ID, Cron: spec.Cron}
	slog.Info("添加定时评估成功", "schedule_id", spec.ID, "cron_expression", spec.Cron)
	return nil
}

// Remove 移除调度
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		s.cron.Remove(entry)
		delete(s.entries, id)
		delete(s.status, id)
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("调度器已经启动")
	}
	s.cron.Start()
	s.started = true
	slog.Info("定时评估调度器启动完成", "schedules", len(s.entries))
	return nil
}

// Stop 停止调度器并等待执行中的任务结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info("定时评估调度器已停止")
}

// Status 全部调度状态
func (s *Scheduler) Status() []ScheduleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScheduleStatus, 0, len(s.status))
	for id, st := range s.status {
		cp := *st
		if entry, ok := s.entries[id]; ok {
			if next := s.cron.Entry(entry).Next; !next.IsZero() {
				cp.NextRun = &next
			}
		}
		out = append(out, cp)
	}
	return out
}

// RunNow 立即执行一次调度
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("调度不存在: %s", id)
	}
	job := s.cron.Entry(entry).Job
	if job == nil {
		return fmt.Errorf("调度不存在: %s", id)
	}
	job.Run()
	return nil
}

func (s *Scheduler) execute(spec ScheduleSpec) {
	run := func() error {
		res, err := s.trigger.Trigger(s.ctx, spec.Request)
		s.record(spec.ID, res, err)
		return err
	}

	if s.locker == nil {
		if err := run(); err != nil {
			slog.Error("定时评估执行失败", "schedule_id", spec.ID, "error", err)
		}
		return
	}

	acquired, err := s.locker.ExecuteWithLock(s.ctx, "schedule:"+spec.ID, s.lockTTL, run)
	if err != nil {
		slog.Error("定时评估执行失败", "schedule_id", spec.ID, "error", err)
		return
	}
	if !acquired {
		slog.Debug("定时评估已在其他实例执行，跳过", "schedule_id", spec.ID)
	}
}

func (s *Scheduler) record(id string, res *TriggerResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[id]
	if !ok {
		return
	}
	now := time.Now()
	st.LastRun = &now
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
		return
	}
	st.LastRunID = res.RunID
	slog.Info("定时评估完成", "schedule_id", id, "run_id", res.RunID, "asset_count", res.AssetCount)
}
