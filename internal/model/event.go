package model

// Event represents a single decoded bus event.
// Data frames carry an arbitration id and payload; error frames carry
// only a channel and timestamp.
type Event struct {
	Timestamp     float64 `json:"timestamp"` // absolute, seconds since the Unix epoch
	Channel       uint16  `json:"channel"`
	IsErrorFrame  bool    `json:"error"`
	ArbitrationID uint32  `json:"id"` // low 29 bits only
	IsExtendedID  bool    `json:"extended"`
	IsRemoteFrame bool    `json:"remote"`
	DLC           uint8   `json:"dlc"`
	Data          []byte  `json:"data"`
}

func (e *Event) GetTimestamp() float64    { return e.Timestamp }
func (e *Event) GetChannel() uint16       { return e.Channel }
func (e *Event) GetArbitrationID() uint32 { return e.ArbitrationID }
func (e *Event) GetDLC() uint8            { return e.DLC }
func (e *Event) GetData() []byte          { return e.Data }
func (e *Event) IsError() bool            { return e.IsErrorFrame }
func (e *Event) IsExtended() bool         { return e.IsExtendedID }
func (e *Event) IsRemote() bool           { return e.IsRemoteFrame }
