/*
 * @module service/events/publisher
 * @description 评估运行事件发布，运行落库后向消息通道广播运行摘要
 * @architecture 适配器模式 - 封装 Kafka、MQTT、Dapr 发布订阅客户端，提供统一的发布接口
 * @documentReference docs/assessment_engine.md
 * @stateFlow 运行落库 -> 构建运行事件 -> JSON序列化 -> 各通道发布
 * @rules 发布失败只记录日志，不影响已完成的运行；事件负载为稳定的 JSON 结构
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang, github.com/dapr/go-sdk/client
 * @refs service/assessment/service.go
 */

package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// EventTypeRunCompleted 运行完成事件类型
const EventTypeRunCompleted = "assessment.run.completed"

// RunEvent 运行事件
type RunEvent struct {
	Type         string         `json:"type"`
	RunID        string         `json:"run_id"`
	RunTS        time.Time      `json:"run_ts"`
	TemplateID   string         `json:"template_id"`
	ProfileID    string         `json:"profile_id,omitempty"`
	Methodology  string         `json:"methodology"`
	Adapter      string         `json:"adapter"`
	Scope        string         `json:"scope"`
	Label        string         `json:"label,omitempty"`
	AssetCount   int            `json:"asset_count"`
	StatusCounts map[string]int `json:"status_counts"`
}

// Publisher 运行事件发布接口
type Publisher interface {
	PublishRun(ctx context.Context, event RunEvent) error
	Close() error
}

// NopPublisher 不发布任何事件
type NopPublisher struct{}

// PublishRun 忽略事件
func (NopPublisher) PublishRun(context.Context, RunEvent) error { return nil }

// Close 无资源释放
func (NopPublisher) Close() error { return nil }

// MultiPublisher 向多个通道扇出
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher 创建扇出发布器，忽略 nil 项
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Len 通道数量
func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}

// PublishRun 逐个通道发布，单个通道失败不影响其余通道
func (m *MultiPublisher) PublishRun(ctx context.Context, event RunEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.PublishRun(ctx, event); err != nil {
			slog.Warn("发布运行事件失败", "run_id", event.RunID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭全部通道
func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
