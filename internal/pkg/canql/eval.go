package canql

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// EventRecord is the view of a bus event that queries are evaluated on.
// This decouples canql from the model package.
type EventRecord interface {
	GetTimestamp() float64
	GetChannel() uint16
	GetArbitrationID() uint32
	GetDLC() uint8
	GetData() []byte
	IsError() bool
	IsExtended() bool
	IsRemote() bool
}

type fieldKind int

const (
	kindUint fieldKind = iota
	kindBool
	kindHex
)

type field struct {
	name string
	kind fieldKind
	bits int
}

var fields = map[string]field{
	"channel": {name: "channel", kind: kindUint, bits: 16},
	"ch":      {name: "channel", kind: kindUint, bits: 16},
	"id":      {name: "id", kind: kindUint, bits: 32},
	"dlc":     {name: "dlc", kind: kindUint, bits: 8},
	"ext":     {name: "ext", kind: kindBool},
	"remote":  {name: "remote", kind: kindBool},
	"rtr":     {name: "remote", kind: kindBool},
	"error":   {name: "error", kind: kindBool},
	"err":     {name: "error", kind: kindBool},
	"data":    {name: "data", kind: kindHex},
}

func lookupField(key string) (field, bool) {
	f, ok := fields[strings.ToLower(key)]
	return f, ok
}

func (f field) check(value string) error {
	switch f.kind {
	case kindUint:
		_, err := strconv.ParseUint(value, 0, f.bits)
		return err
	case kindBool:
		_, err := strconv.ParseBool(value)
		return err
	case kindHex:
		if !isHex(normalizeHex(value)) {
			return fmt.Errorf("invalid hex %q", value)
		}
	}
	return nil
}

// Match evaluates the AST node against an event and returns true if it matches.
func Match(node Node, ev EventRecord) bool {
	if node == nil {
		return true // No filter means match all
	}

	switch n := node.(type) {
	case BinaryExpr:
		return evalBinary(n, ev)
	case MatchExpr:
		return evalMatch(n, ev)
	case NotExpr:
		return !Match(n.Expr, ev)
	default:
		return false
	}
}

func evalBinary(expr BinaryExpr, ev EventRecord) bool {
	switch expr.Op {
	case "AND":
		return Match(expr.Left, ev) && Match(expr.Right, ev)
	case "OR":
		return Match(expr.Left, ev) || Match(expr.Right, ev)
	default:
		return false
	}
}

func evalMatch(expr MatchExpr, ev EventRecord) bool {
	if expr.Key == "" {
		return matchBare(expr.Value, ev)
	}

	f, ok := lookupField(expr.Key)
	if !ok {
		return false
	}
	eq := matchField(f, expr.Value, ev)
	if expr.Op == "!=" {
		return !eq
	}
	return eq
}

func matchField(f field, value string, ev EventRecord) bool {
	switch f.kind {
	case kindUint:
		want, err := strconv.ParseUint(value, 0, f.bits)
		if err != nil {
			return false
		}
		return uintField(f.name, ev) == want
	case kindBool:
		want, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		return boolField(f.name, ev) == want
	case kindHex:
		return strings.Contains(hex.EncodeToString(ev.GetData()), normalizeHex(value))
	}
	return false
}

func uintField(name string, ev EventRecord) uint64 {
	switch name {
	case "channel":
		return uint64(ev.GetChannel())
	case "id":
		return uint64(ev.GetArbitrationID())
	case "dlc":
		return uint64(ev.GetDLC())
	}
	return 0
}

func boolField(name string, ev EventRecord) bool {
	switch name {
	case "ext":
		return ev.IsExtended()
	case "remote":
		return ev.IsRemote()
	case "error":
		return ev.IsError()
	}
	return false
}

// matchBare handles terms without a key. Flag names test the flag;
// anything else is a hex substring search over id and payload.
func matchBare(term string, ev EventRecord) bool {
	switch strings.ToLower(term) {
	case "error", "err":
		return ev.IsError()
	case "ext", "extended":
		return ev.IsExtended()
	case "remote", "rtr":
		return ev.IsRemote()
	}

	q := normalizeHex(term)
	if q == "" {
		return true
	}
	if ev.IsError() {
		return false
	}
	id := strconv.FormatUint(uint64(ev.GetArbitrationID()), 16)
	return strings.Contains(id, q) || strings.Contains(hex.EncodeToString(ev.GetData()), q)
}

// normalizeHex lower-cases s and drops a 0x prefix and separators.
func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	return strings.NewReplacer(" ", "", ":", "", "-", "", ".", "").Replace(s)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
