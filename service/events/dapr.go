package events

import (
	"context"
	"fmt"

	dapr "github.com/dapr/go-sdk/client"
)

// daprClient dapr 客户端的发布子集
type daprClient interface {
	PublishEvent(ctx context.Context, pubsubName, topicName string, data interface{}, opts ...dapr.PublishEventOption) error
	Close()
}

// DaprPublisher 通过 Dapr 发布订阅组件发布运行事件
type DaprPublisher struct {
	client daprClient
	pubsub string
	topic  string
}

// NewDaprPublisher 连接 sidecar 并创建发布器
func NewDaprPublisher(pubsub, topic string) (*DaprPublisher, error) {
	client, err := dapr.NewClient()
	if err != nil {
		return nil, fmt.Errorf("创建Dapr客户端失败: %w", err)
	}
	return &DaprPublisher{client: client, pubsub: pubsub, topic: topic}, nil
}

// PublishRun 发布运行事件
func (p *DaprPublisher) PublishRun(ctx context.Context, event RunEvent) error {
	err := p.client.PublishEvent(ctx, p.pubsub, p.topic, event, dapr.PublishEventWithContentType("application/json"))
	if err != nil {
		return fmt.Errorf("Dapr发布失败 pubsub=%s topic=%s: %w", p.pubsub, p.topic, err)
	}
	return nil
}

// Close 关闭客户端
func (p *DaprPublisher) Close() error {
	p.client.Close()
	return nil
}
