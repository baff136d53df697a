// Package wire encodes drive updates for telemetry subscribers.
package wire

import (
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/open-teleop/rcdrive/domain/teleop"
	"github.com/open-teleop/rcdrive/pkg/flatbuffers/rcdrive/telemetry"
)

// TopicDriveUpdate is the telemetry topic for queued updates.
const TopicDriveUpdate = "teleop.drive.update"

// EncodeUpdate serializes u as a DriveUpdate flatbuffer.
func EncodeUpdate(u teleop.Update) []byte {
	builder := flatbuffers.NewBuilder(128)
	sessionOffset := builder.CreateString(u.SessionID)

	telemetry.DriveUpdateStart(builder)
	telemetry.DriveUpdateAddSeq(builder, u.Seq)
	telemetry.DriveUpdateAddTimestampNs(builder, u.QueuedAt.UnixNano())
	telemetry.DriveUpdateAddThrottle(builder, u.Command.Throttle)
	telemetry.DriveUpdateAddSteering(builder, u.Command.Steering)
	telemetry.DriveUpdateAddChanged(builder, byte(u.Changed))
	telemetry.DriveUpdateAddSessionId(builder, sessionOffset)
	builder.Finish(telemetry.DriveUpdateEnd(builder))

	return builder.FinishedBytes()
}

// DecodeUpdate reads a DriveUpdate flatbuffer. Endpoint is not carried.
func DecodeUpdate(buf []byte) (u teleop.Update, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return teleop.Update{}, fmt.Errorf("drive update too short: %d bytes", len(buf))
	}
	// the accessors panic on a corrupt buffer
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt drive update: %v", r)
		}
	}()

	msg := telemetry.GetRootAsDriveUpdate(buf, 0)
	return teleop.Update{
		Seq:       msg.Seq(),
		SessionID: string(msg.SessionId()),
		Command: teleop.Command{
			Throttle: msg.Throttle(),
			Steering: msg.Steering(),
		},
		Changed:  teleop.AxisSet(msg.Changed()),
		QueuedAt: time.Unix(0, msg.TimestampNs()),
	}, nil
}
