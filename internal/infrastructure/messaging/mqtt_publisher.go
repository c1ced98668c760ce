package messaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

const publishTimeout = 5 * time.Second

// MQTTConfig параметры брокера
type MQTTConfig struct {
	Broker      string // tcp://host:1883
	ClientID    string
	TopicPrefix string
}

// MQTTPublisher публикует события в топики <prefix>/capture, <prefix>/images/frame, <prefix>/results.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

// NewMQTTClient подключается к брокеру
func NewMQTTClient(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", cfg.Broker, token.Error())
	}
	return c, nil
}

// NewMQTTPublisher создаёт публикатор поверх подключённого клиента
func NewMQTTPublisher(client mqtt.Client, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = "multicapdx"
	}
	return &MQTTPublisher{client: client, prefix: prefix}
}

type captureMessage struct {
	FrameID   string             `json:"frame_id"`
	Source    entity.FrameSource `json:"source"`
	Warning   string             `json:"warning,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Publish отправляет событие; QoS 1, без retain.
func (p *MQTTPublisher) Publish(ctx context.Context, event entity.Event) error {
	switch event.Type {
	case entity.EventCapture:
		msg := captureMessage{
			FrameID:   event.FrameID,
			Source:    event.Source,
			Warning:   event.Warning,
			Timestamp: event.Timestamp,
		}
		if err := p.publishJSON(ctx, p.prefix+"/capture", msg); err != nil {
			return err
		}
		if len(event.ImagePNG) > 0 {
			b64 := make([]byte, base64.StdEncoding.EncodedLen(len(event.ImagePNG)))
			base64.StdEncoding.Encode(b64, event.ImagePNG)
			return p.publish(ctx, p.prefix+"/images/frame", b64)
		}
		return nil
	case entity.EventExtract:
		if event.Analysis == nil {
			return nil
		}
		return p.publishJSON(ctx, p.prefix+"/results", event.Analysis.Report())
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

// Close отключается от брокера
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func (p *MQTTPublisher) publishJSON(ctx context.Context, topic string, obj interface{}) error {
	msg, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return p.publish(ctx, topic, msg)
}

func (p *MQTTPublisher) publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

var _ port.EventPublisher = (*MQTTPublisher)(nil)
