package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/open-teleop/rcdrive/domain/input"
	"github.com/open-teleop/rcdrive/domain/teleop"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
)

// ControlWebSocketHandler reads browser key and slider events and feeds them to the input handler.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, handler *input.Handler) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else {
				// Don't log normal closures as errors
				if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Infof("Control WS connection closed: %v", err)
				} else {
					logger.Infof("Control WS connection closed normally.")
				}
			}
			break // Exit loop on error/close
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		ack := applyInput(msg, handler)
		if ack.Error != "" {
			logger.Warnf("Rejected Control WS message: %s. Message: %s", ack.Error, string(msg))
		}
		if err := conn.WriteJSON(ack); err != nil {
			logger.Warnf("Control WS write error: %v", err)
			break
		}
	}
	// a vanished operator must not leave the vehicle driving
	handler.ReleaseAll()
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

// applyInput decodes one message and applies it.
func applyInput(raw []byte, handler *input.Handler) InputAck {
	var in InputMsg
	if err := json.Unmarshal(raw, &in); err != nil {
		return InputAck{Error: "malformed input: " + err.Error()}
	}

	switch in.Type {
	case InputTypeKey:
		return InputAck{Handled: handler.HandleKey(in.Key, in.Down)}
	case InputTypeLimit:
		axis, err := teleop.ParseAxis(in.Axis)
		if err != nil {
			return InputAck{Error: err.Error()}
		}
		limit, err := handler.HandleLimit(axis, in.Percent)
		if err != nil {
			return InputAck{Error: err.Error()}
		}
		return InputAck{Handled: true, Limit: &limit}
	case InputTypeRelease:
		handler.ReleaseAll()
		return InputAck{Handled: true}
	}
	return InputAck{Error: "unknown input type " + in.Type}
}
