package canql

import (
	"testing"
)

// testEvent implements EventRecord for testing
type testEvent struct {
	timestamp float64
	channel   uint16
	id        uint32
	dlc       uint8
	data      []byte
	isError   bool
	extended  bool
	remote    bool
}

func (e *testEvent) GetTimestamp() float64    { return e.timestamp }
func (e *testEvent) GetChannel() uint16       { return e.channel }
func (e *testEvent) GetArbitrationID() uint32 { return e.id }
func (e *testEvent) GetDLC() uint8            { return e.dlc }
func (e *testEvent) GetData() []byte          { return e.data }
func (e *testEvent) IsError() bool            { return e.isError }
func (e *testEvent) IsExtended() bool         { return e.extended }
func (e *testEvent) IsRemote() bool           { return e.remote }

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"channel:1", []TokenType{TokenIdent, TokenColon, TokenIdent, TokenEOF}},
		{"id:0x1F", []TokenType{TokenIdent, TokenColon, TokenIdent, TokenEOF}},
		{`data:"01 02"`, []TokenType{TokenIdent, TokenColon, TokenString, TokenEOF}},
		{"a AND b", []TokenType{TokenIdent, TokenAnd, TokenIdent, TokenEOF}},
		{"a or b", []TokenType{TokenIdent, TokenOr, TokenIdent, TokenEOF}},
		{"NOT a", []TokenType{TokenNot, TokenIdent, TokenEOF}},
		{"!error", []TokenType{TokenNot, TokenIdent, TokenEOF}},
		{"(a)", []TokenType{TokenLParen, TokenIdent, TokenRParen, TokenEOF}},
		{"dlc!=8", []TokenType{TokenIdent, TokenNeq, TokenIdent, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			for i, expected := range tt.expected {
				tok := lexer.NextToken()
				if tok.Type != expected {
					t.Errorf("token %d: expected %v, got %v (%q)", i, expected, tok.Type, tok.Value)
				}
			}
		})
	}
}

func TestLexerStringEscape(t *testing.T) {
	tok := NewLexer(`"a\"b"`).NextToken()
	if tok.Type != TokenString || tok.Value != `a"b` {
		t.Errorf("got %v %q", tok.Type, tok.Value)
	}
}

func TestParseSimple(t *testing.T) {
	tests := []struct {
		input string
		check func(Node) bool
	}{
		{
			input: "channel:1",
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Key == "channel" && m.Value == "1" && m.Op == "="
			},
		},
		{
			input: "ch:2",
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Key == "channel" && m.Value == "2"
			},
		},
		{
			input: "id!=0x64",
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Key == "id" && m.Value == "0x64" && m.Op == "!="
			},
		},
		{
			input: `"0a0b"`,
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Key == "" && m.Value == "0a0b" && m.Op == "CONTAINS"
			},
		},
		{
			input: "error",
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Key == "" && m.Value == "error"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if !tt.check(node) {
				t.Errorf("check failed for input %q, got: %+v", tt.input, node)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	node, err := Parse("   ")
	if err != nil || node != nil {
		t.Errorf("expected nil node, got %+v, %v", node, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"bogus:1",
		"channel:x",
		"channel:70000",
		"id:0x1FFFFFFFF",
		"ext:maybe",
		"data:zz",
		"channel:1 AND",
		"(channel:1",
		"channel:1)",
		"channel:",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) expected error", input)
			}
		})
	}
}

func TestParseCompound(t *testing.T) {
	node, err := Parse("channel:1 AND id:0x100")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	bin, ok := node.(BinaryExpr)
	if !ok || bin.Op != "AND" {
		t.Fatalf("expected BinaryExpr AND, got %+v", node)
	}

	left, ok := bin.Left.(MatchExpr)
	if !ok || left.Key != "channel" || left.Value != "1" {
		t.Errorf("left expected channel:1, got %+v", left)
	}

	right, ok := bin.Right.(MatchExpr)
	if !ok || right.Key != "id" || right.Value != "0x100" {
		t.Errorf("right expected id:0x100, got %+v", right)
	}
}

func TestParseParentheses(t *testing.T) {
	node, err := Parse("channel:1 AND (dlc:8 OR remote)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	bin, ok := node.(BinaryExpr)
	if !ok || bin.Op != "AND" {
		t.Fatalf("expected AND at root, got %+v", node)
	}

	rightBin, ok := bin.Right.(BinaryExpr)
	if !ok || rightBin.Op != "OR" {
		t.Errorf("expected OR on right, got %+v", bin.Right)
	}
}

func TestParseNot(t *testing.T) {
	node, err := Parse("NOT error")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	not, ok := node.(NotExpr)
	if !ok {
		t.Fatalf("expected NotExpr, got %+v", node)
	}

	m, ok := not.Expr.(MatchExpr)
	if !ok || m.Value != "error" {
		t.Errorf("expected error, got %+v", not.Expr)
	}
}

func TestMatch(t *testing.T) {
	ev := &testEvent{
		timestamp: 1600000000.5,
		channel:   1,
		id:        0x1000_00C8,
		dlc:       3,
		data:      []byte{0x01, 0x02, 0xAB},
		extended:  true,
		remote:    true,
	}

	tests := []struct {
		query    string
		expected bool
	}{
		{"channel:1", true},
		{"ch:2", false},
		{"id:0x100000C8", true},
		{"id:268435656", true},
		{"id:0x64", false},
		{"id!=0x64", true},
		{"dlc:3", true},
		{"dlc!=3", false},
		{"ext:true", true},
		{"ext:0", false},
		{"remote", true},
		{"rtr:false", false},
		{"error", false},
		{"NOT error", true},
		{"err:false", true},
		{"data:02ab", true},
		{`data:"02 ab"`, true},
		{"data:ff", false},
		{"c8", true},
		{"0102", true},
		{"beef", false},
		{"channel:1 AND dlc:3", true},
		{"channel:1 AND dlc:4", false},
		{"channel:9 OR ext", true},
		{"channel:1 AND (dlc:8 OR remote)", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			result := Match(node, ev)
			if result != tt.expected {
				t.Errorf("Match(%q) = %v, want %v", tt.query, result, tt.expected)
			}
		})
	}
}

func TestMatchErrorFrame(t *testing.T) {
	ev := &testEvent{channel: 2, isError: true}

	tests := []struct {
		query    string
		expected bool
	}{
		{"error", true},
		{"ERROR", true},
		{"error:true", true},
		{"channel:2 AND error", true},
		{"0", false}, // hex search never matches error frames
		{"dlc:0", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if Match(node, ev) != tt.expected {
				t.Errorf("Match(%q) failed", tt.query)
			}
		})
	}
}

func TestMatchNilNode(t *testing.T) {
	if !Match(nil, &testEvent{}) {
		t.Error("nil node should match everything")
	}
}
