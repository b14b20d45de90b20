package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	dapr "github.com/dapr/go-sdk/client"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleEvent() RunEvent {
	return RunEvent{
		Type:         EventTypeRunCompleted,
		RunID:        "run-1",
		RunTS:        time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		TemplateID:   "metadata_quality",
		Methodology:  "WEIGHTED",
		Adapter:      "bulk",
		Scope:        "acme:*:*:*:*",
		AssetCount:   2,
		StatusCounts: map[string]int{"READY": 1, "IN_PROGRESS": 1},
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "assessment-runs"}

	require.NoError(t, p.PublishRun(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))

	var decoded RunEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, 1, decoded.StatusCounts["READY"])

	w.err = errors.New("broker down")
	assert.ErrorContains(t, p.PublishRun(context.Background(), sampleEvent()), "broker down")
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMQTT struct {
	topic   string
	payload []byte
	err     error
}

func (c *fakeMQTT) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.payload = payload.([]byte)
	return newFakeToken(c.err)
}

func (c *fakeMQTT) Disconnect(uint) {}

func TestMQTTPublisher(t *testing.T) {
	c := &fakeMQTT{}
	p := &MQTTPublisher{client: c, topic: "metahub/runs", qos: 1}

	require.NoError(t, p.PublishRun(context.Background(), sampleEvent()))
	assert.Equal(t, "metahub/runs", c.topic)
	assert.Contains(t, string(c.payload), `"run_id":"run-1"`)

	c.err = errors.New("not connected")
	assert.Error(t, p.PublishRun(context.Background(), sampleEvent()))
}

type mockDapr struct {
	mock.Mock
}

func (m *mockDapr) PublishEvent(ctx context.Context, pubsubName, topicName string, data interface{}, opts ...dapr.PublishEventOption) error {
	args := m.Called(pubsubName, topicName, data)
	return args.Error(0)
}

func (m *mockDapr) Close() {}

func TestDaprPublisher(t *testing.T) {
	c := new(mockDapr)
	c.On("PublishEvent", "pubsub", "assessment-runs", sampleEvent()).Return(nil)
	p := &DaprPublisher{client: c, pubsub: "pubsub", topic: "assessment-runs"}

	require.NoError(t, p.PublishRun(context.Background(), sampleEvent()))
	c.AssertExpectations(t)
}

type recordingPublisher struct {
	err    error
	events []RunEvent
}

func (r *recordingPublisher) PublishRun(_ context.Context, e RunEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestMultiPublisher(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("boom")}
	ok := &recordingPublisher{}
	m := NewMultiPublisher(failing, nil, ok)
	assert.Equal(t, 2, m.Len())

	err := m.PublishRun(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, ok.events, 1, "单个通道失败不影响其余通道")
	assert.NoError(t, m.Close())

	assert.NoError(t, NopPublisher{}.PublishRun(context.Background(), sampleEvent()))
}
