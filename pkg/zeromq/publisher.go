package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/rcdrive/domain/teleop"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/wire"
	"github.com/pebbe/zmq4"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("zeromq publisher is closed")

// Topics and message types
const (
	TopicTargetUpdated   = "target.updated"
	MsgTypeTargetUpdated = "TARGET_UPDATED"
)

// ZeroMQMessage is the JSON envelope for non-flatbuffer notifications
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// UpdatePublisher publishes queued drive updates and target changes on a PUB socket.
type UpdatePublisher struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// NewUpdatePublisher creates a PUB socket bound to address
func NewUpdatePublisher(address string, logger customlog.Logger) (*UpdatePublisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	// Configure socket options
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("UpdatePublisher initialized on %s", address)

	return &UpdatePublisher{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (p *UpdatePublisher) PublishMessage(topic string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPublisherClosed
	}

	// Send two messages in sequence (topic first, then message)
	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (p *UpdatePublisher) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().Unix()),
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return p.PublishMessage(topic, msgData)
}

// PublishTargetUpdated implements services.TargetPublisher
func (p *UpdatePublisher) PublishTargetUpdated(url string) error {
	return p.PublishJSON(TopicTargetUpdated, MsgTypeTargetUpdated, map[string]string{"url": url})
}

// OnEvent implements teleop.Observer. Only queued updates are published.
func (p *UpdatePublisher) OnEvent(e teleop.Event) {
	if e.Kind != teleop.EventQueued {
		return
	}
	if err := p.PublishMessage(wire.TopicDriveUpdate, wire.EncodeUpdate(e.Update)); err != nil {
		p.logger.Warnf("Failed to publish drive update %d: %v", e.Update.Seq, err)
	}
}

// Close cleans up resources
func (p *UpdatePublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
	}
}
