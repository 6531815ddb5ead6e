package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var errNullReply = errors.New("reply is null")

// Request is one command sent to the wallet daemon. It is never modified
// after it has been issued.
type Request struct {
	ID      string
	Command string
	Args    string
}

// NewRequest stamps a command with a fresh request ID.
func NewRequest(command, args string) Request {
	return Request{
		ID:      uuid.NewString(),
		Command: command,
		Args:    args,
	}
}

// ShortID returns the first block of the request ID for log lines.
func (r Request) ShortID() string {
	if i := strings.IndexByte(r.ID, '-'); i > 0 {
		return r.ID[:i]
	}
	return r.ID
}

// Reply is the structured form of a daemon reply.
type Reply struct {
	value any
}

// ParseReply decodes raw daemon text. Malformed JSON, trailing garbage and a
// bare null are all rejected.
func ParseReply(raw string) (Reply, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Reply{}, fmt.Errorf("decode reply: trailing data")
	}
	if v == nil {
		return Reply{}, errNullReply
	}
	return Reply{value: v}, nil
}

// NewReply wraps an already-decoded value. Numbers should be json.Number for
// Int to behave like it does on parsed replies.
func NewReply(v any) Reply {
	return Reply{value: v}
}

// Value returns the decoded tree.
func (r Reply) Value() any {
	return r.value
}

// IsZero reports whether the reply holds nothing.
func (r Reply) IsZero() bool {
	return r.value == nil
}

// Field looks up a top-level key of an object reply.
func (r Reply) Field(key string) (any, bool) {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// Int returns a numeric field, or 0 when it is missing or not a number.
func (r Reply) Int(key string) int64 {
	v, ok := r.Field(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return math.MaxInt64
		}
		if f, err := n.Float64(); err == nil {
			return clampFloat(f)
		}
	case float64:
		return clampFloat(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// clampFloat converts f to int64, saturating at the int64 range. NaN is 0.
func clampFloat(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// String returns a scalar field rendered as text, or "" for anything else.
func (r Reply) String(key string) string {
	v, ok := r.Field(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	}
	return ""
}

// Keys returns the sorted top-level keys of an object reply.
func (r Reply) Keys() []string {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSON renders the reply indented for display.
func (r Reply) JSON() string {
	out, err := json.MarshalIndent(r.value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", r.value)
	}
	return string(out)
}

// Result is the outcome of one request: a reply or a failure message.
type Result struct {
	reply  Reply
	err    string
	failed bool
}

// Success wraps a parsed reply.
func Success(reply Reply) Result {
	return Result{reply: reply}
}

// Failure wraps an error message.
func Failure(message string) Result {
	return Result{err: message, failed: true}
}

// ParseResult turns raw daemon text into a Result. Text that is not a
// well-formed reply becomes a Failure carrying the raw text.
func ParseResult(raw string) Result {
	reply, err := ParseReply(raw)
	if err != nil {
		return Failure(raw)
	}
	return Success(reply)
}

// Failed reports whether the request failed.
func (r Result) Failed() bool {
	return r.failed
}

// Reply returns the parsed reply of a successful result.
func (r Result) Reply() Reply {
	return r.reply
}

// Err returns the failure message.
func (r Result) Err() string {
	return r.err
}
