package messaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"multicap-dx/internal/domain/entity"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient реализует только то, чем пользуется публикатор
type fakeClient struct {
	mqtt.Client
	messages     []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &doneToken{err: c.err}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestMQTTPublisher_Capture(t *testing.T) {
	client := &fakeClient{}
	pub := NewMQTTPublisher(client, "")

	err := pub.Publish(context.Background(), entity.Event{
		Type:     entity.EventCapture,
		FrameID:  "f1",
		Source:   entity.SourceSynthetic,
		Warning:  "synthetic frame: no port",
		ImagePNG: []byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.Len(t, client.messages, 2)

	require.Equal(t, "multicapdx/capture", client.messages[0].topic)
	require.Equal(t, byte(1), client.messages[0].qos)
	var msg captureMessage
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &msg))
	require.Equal(t, "f1", msg.FrameID)
	require.Equal(t, entity.SourceSynthetic, msg.Source)

	require.Equal(t, "multicapdx/images/frame", client.messages[1].topic)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), string(client.messages[1].payload))

	pub.Close()
	require.True(t, client.disconnected)
}

func TestMQTTPublisher_Extract(t *testing.T) {
	client := &fakeClient{}
	pub := NewMQTTPublisher(client, "lab")

	analysis := &entity.AnalysisResult{RunID: "r1", CSVPath: "roi_extract/a.csv", ControlOK: true}
	err := pub.Publish(context.Background(), entity.Event{Type: entity.EventExtract, Analysis: analysis})
	require.NoError(t, err)
	require.Len(t, client.messages, 1)
	require.Equal(t, "lab/results", client.messages[0].topic)

	var report entity.Report
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &report))
	require.Equal(t, "r1", report.RunID)
	require.True(t, report.ControlOK)
}

func TestMQTTPublisher_Errors(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	pub := NewMQTTPublisher(client, "lab")

	err := pub.Publish(context.Background(), entity.Event{Type: entity.EventCapture, FrameID: "f"})
	require.ErrorContains(t, err, "not connected")

	err = pub.Publish(context.Background(), entity.Event{Type: "unknown"})
	require.Error(t, err)
}
