package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LiteralKind tags the dynamic type of a Literal.
type LiteralKind int

const (
	LiteralNone LiteralKind = iota
	LiteralString
	LiteralNumber
	LiteralBool
	LiteralList
)

// Literal is a rule operand or a value read from the context.
type Literal struct {
	kind LiteralKind
	str  string
	num  float64
	flag bool
	list []Literal
}

func Str(s string) Literal  { return Literal{kind: LiteralString, str: s} }
func Num(n float64) Literal { return Literal{kind: LiteralNumber, num: n} }
func Int(n int) Literal     { return Num(float64(n)) }
func Bool(b bool) Literal   { return Literal{kind: LiteralBool, flag: b} }

func List(items ...Literal) Literal {
	return Literal{kind: LiteralList, list: append([]Literal{}, items...)}
}

// Ints builds a list of numbers.
func Ints(ns ...int) Literal {
	items := make([]Literal, len(ns))
	for i, n := range ns {
		items[i] = Int(n)
	}
	return Literal{kind: LiteralList, list: items}
}

// Strs builds a list of strings.
func Strs(ss ...string) Literal {
	items := make([]Literal, len(ss))
	for i, s := range ss {
		items[i] = Str(s)
	}
	return Literal{kind: LiteralList, list: items}
}

func (l Literal) Kind() LiteralKind { return l.kind }
func (l Literal) IsZero() bool      { return l.kind == LiteralNone }

// Items returns the elements of a list literal.
func (l Literal) Items() []Literal { return l.list }

// text is the canonical string form used when kinds differ.
func (l Literal) text() string {
	switch l.kind {
	case LiteralString:
		return l.str
	case LiteralNumber:
		return strconv.FormatFloat(l.num, 'f', -1, 64)
	case LiteralBool:
		return strconv.FormatBool(l.flag)
	}
	return ""
}

func (l Literal) String() string {
	if l.kind == LiteralList {
		parts := make([]string, len(l.list))
		for i, item := range l.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return l.text()
}

func equal(a, b Literal) bool {
	switch {
	case a.kind == LiteralList || b.kind == LiteralList:
		return false
	case a.kind == LiteralNumber && b.kind == LiteralNumber:
		return a.num == b.num
	case a.kind == LiteralBool && b.kind == LiteralBool:
		return a.flag == b.flag
	}
	return strings.EqualFold(a.text(), b.text())
}

// compare applies op with the context value on the left.
func compare(actual Literal, op Operator, operand Literal) bool {
	switch op {
	case OpEq:
		return equal(actual, operand)
	case OpNeq:
		return !equal(actual, operand)
	case OpGt, OpLt, OpGte, OpLte:
		if actual.kind != LiteralNumber || operand.kind != LiteralNumber {
			return false
		}
		switch op {
		case OpGt:
			return actual.num > operand.num
		case OpLt:
			return actual.num < operand.num
		case OpGte:
			return actual.num >= operand.num
		default:
			return actual.num <= operand.num
		}
	case OpIn, OpNotIn:
		if operand.kind != LiteralList {
			return false
		}
		found := false
		for _, item := range operand.list {
			if equal(actual, item) {
				found = true
				break
			}
		}
		return found == (op == OpIn)
	}
	return false
}

func (l Literal) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case LiteralString:
		return json.Marshal(l.str)
	case LiteralNumber:
		return json.Marshal(l.num)
	case LiteralBool:
		return json.Marshal(l.flag)
	case LiteralList:
		return json.Marshal(l.list)
	}
	return []byte("null"), nil
}

func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Literal{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Str(s)
	case '[':
		var items []Literal
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = Literal{kind: LiteralList, list: items}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*l = Bool(b)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("rules: unsupported literal %s", data)
		}
		*l = Num(n)
	}
	return nil
}
