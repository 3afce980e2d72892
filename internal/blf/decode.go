package blf

import (
	"fmt"

	"github.com/coffersTech/blflog/internal/model"
)

// decodeObject converts a nested object into an Event. ok is false for
// object types that produce no event; those are skipped, never fatal.
func decodeObject(h ObjectHeader, body []byte, anchor float64) (ev model.Event, ok bool, err error) {
	switch h.ObjectType {
	case TypeCANMessage:
		if len(body) < canMessageSize {
			return model.Event{}, false, newFormatError(ErrShortBody,
				fmt.Sprintf("%d bytes", canMessageSize), fmt.Sprintf("%d bytes", len(body)))
		}
		m := parseCANMessage(body)
		if int(m.DLC) > len(m.Data) {
			return model.Event{}, false, newFormatError(ErrInvalidDLC,
				fmt.Sprintf("dlc <= %d", len(m.Data)), fmt.Sprintf("dlc=%d", m.DLC))
		}
		data := make([]byte, m.DLC)
		copy(data, m.Data[:m.DLC])
		return model.Event{
			Timestamp:     h.Seconds(anchor),
			Channel:       m.Channel,
			ArbitrationID: m.ID & arbitrationIDMask,
			IsExtendedID:  m.ID&extendedIDFlag != 0,
			IsRemoteFrame: m.Flags&remoteFlag != 0,
			DLC:           m.DLC,
			Data:          data,
		}, true, nil

	case TypeCANError:
		if len(body) < canErrorSize {
			return model.Event{}, false, newFormatError(ErrShortBody,
				fmt.Sprintf("%d bytes", canErrorSize), fmt.Sprintf("%d bytes", len(body)))
		}
		e := parseCANError(body)
		return model.Event{
			Timestamp:    h.Seconds(anchor),
			Channel:      e.Channel,
			IsErrorFrame: true,
		}, true, nil

	default:
		// Nested log containers, global markers and unknown types.
		return model.Event{}, false, nil
	}
}
