package zeromq

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall"
	"time"

	"github.com/open-teleop/rcdrive/domain/teleop"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/wire"
	"github.com/pebbe/zmq4"
)

const listenerPollInterval = 100 * time.Millisecond

// TelemetryHandler receives what an UpdatePublisher sends.
type TelemetryHandler interface {
	HandleDriveUpdate(u teleop.Update)
	HandleTargetUpdated(url string)
}

// UpdateListener subscribes to an UpdatePublisher.
// The socket belongs to the Run goroutine.
type UpdateListener struct {
	socket  *zmq4.Socket
	handler TelemetryHandler
	logger  customlog.Logger
}

// NewUpdateListener creates a SUB socket connected to address.
func NewUpdateListener(address string, handler TelemetryHandler, logger customlog.Logger) (*UpdateListener, error) {
	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	for _, topic := range []string{wire.TopicDriveUpdate, TopicTargetUpdated} {
		if err := socket.SetSubscribe(topic); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	// bounded receive so Run notices cancellation
	if err := socket.SetRcvtimeo(listenerPollInterval); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	logger.Infof("UpdateListener connected to %s", address)
	return &UpdateListener{socket: socket, handler: handler, logger: logger}, nil
}

// Run receives until ctx is done, then closes the socket.
func (l *UpdateListener) Run(ctx context.Context) error {
	defer l.socket.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		parts, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
				continue
			}
			l.logger.Errorf("Error receiving telemetry: %v", err)
			time.Sleep(listenerPollInterval)
			continue
		}
		l.dispatch(parts)
	}
}

func (l *UpdateListener) dispatch(parts [][]byte) {
	if len(parts) != 2 {
		l.logger.Warnf("Dropping telemetry message with %d frames", len(parts))
		return
	}

	switch topic := string(parts[0]); topic {
	case wire.TopicDriveUpdate:
		u, err := wire.DecodeUpdate(parts[1])
		if err != nil {
			l.logger.Warnf("Dropping drive update: %v", err)
			return
		}
		l.handler.HandleDriveUpdate(u)
	case TopicTargetUpdated:
		var msg ZeroMQMessage
		if err := json.Unmarshal(parts[1], &msg); err != nil {
			l.logger.Warnf("Dropping target update: %v", err)
			return
		}
		data, _ := msg.Data.(map[string]interface{})
		url, _ := data["url"].(string)
		l.handler.HandleTargetUpdated(url)
	default:
		l.logger.Debugf("Ignoring telemetry topic %s", topic)
	}
}
