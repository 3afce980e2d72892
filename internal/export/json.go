package export

import (
	"bufio"
	"encoding/hex"
	"io"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/blflog/internal/model"
)

// JSONWriter writes newline delimited JSON, one object per event.
type JSONWriter struct {
	w     *bufio.Writer
	arena fastjson.Arena
	buf   []byte
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: newBuffered(w)}
}

func (jw *JSONWriter) WriteEvent(ev *model.Event) error {
	a := &jw.arena
	a.Reset()

	o := a.NewObject()
	o.Set("timestamp", a.NewNumberFloat64(ev.Timestamp))
	o.Set("channel", a.NewNumberInt(int(ev.Channel)))
	o.Set("error", jsonBool(a, ev.IsErrorFrame))
	if !ev.IsErrorFrame {
		o.Set("id", a.NewNumberInt(int(ev.ArbitrationID)))
		o.Set("extended", jsonBool(a, ev.IsExtendedID))
		o.Set("remote", jsonBool(a, ev.IsRemoteFrame))
		o.Set("dlc", a.NewNumberInt(int(ev.DLC)))
		o.Set("data", a.NewString(hex.EncodeToString(ev.Data)))
	}

	jw.buf = o.MarshalTo(jw.buf[:0])
	jw.buf = append(jw.buf, '\n')
	_, err := jw.w.Write(jw.buf)
	return err
}

func (jw *JSONWriter) Flush() error {
	return jw.w.Flush()
}

func jsonBool(a *fastjson.Arena, v bool) *fastjson.Value {
	if v {
		return a.NewTrue()
	}
	return a.NewFalse()
}
