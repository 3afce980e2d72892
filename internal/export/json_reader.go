package export

import (
	"bufio"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/coffersTech/blflog/internal/model"
)

// JSONReader iterates events from a JSONWriter export.
type JSONReader struct {
	sc     *bufio.Scanner
	parser fastjson.Parser
	line   int
	curr   model.Event
	err    error
}

func NewJSONReader(r io.Reader) *JSONReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONReader{sc: sc}
}

func (jr *JSONReader) Next() bool {
	if jr.err != nil {
		return false
	}
	for jr.sc.Scan() {
		jr.line++
		line := jr.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		v, err := jr.parser.ParseBytes(line)
		if err != nil {
			jr.err = errors.Wrapf(err, "line %d", jr.line)
			return false
		}
		ev, err := eventFromJSON(v)
		if err != nil {
			jr.err = errors.Wrapf(err, "line %d", jr.line)
			return false
		}
		jr.curr = ev
		return true
	}
	jr.err = jr.sc.Err()
	return false
}

func (jr *JSONReader) Event() model.Event {
	return jr.curr
}

func (jr *JSONReader) Err() error {
	return jr.err
}

func eventFromJSON(v *fastjson.Value) (model.Event, error) {
	ev := model.Event{
		Timestamp:     v.GetFloat64("timestamp"),
		Channel:       uint16(v.GetUint("channel")),
		IsErrorFrame:  v.GetBool("error"),
		ArbitrationID: uint32(v.GetUint("id")),
		IsExtendedID:  v.GetBool("extended"),
		IsRemoteFrame: v.GetBool("remote"),
		DLC:           uint8(v.GetUint("dlc")),
	}
	if s := v.GetStringBytes("data"); len(s) > 0 {
		data, err := hex.DecodeString(string(s))
		if err != nil {
			return model.Event{}, errors.Wrap(err, "data")
		}
		ev.Data = data
	} else if !ev.IsErrorFrame {
		ev.Data = []byte{}
	}
	return ev, nil
}
