package rpc

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// SuccessFunc receives a successful reply on the event loop. The returned
// message, if any, is fed back into the program.
type SuccessFunc func(Reply) tea.Msg

// ErrorFunc receives a failure message on the event loop.
type ErrorFunc func(string) tea.Msg

// Callback pairs the two continuations of one request. Exactly one of them
// runs, once; after that the callback holds nothing.
type Callback struct {
	mu        sync.Mutex
	live      bool
	onSuccess SuccessFunc
	onError   ErrorFunc
}

// NewCallback builds a live callback. Nil continuations are treated as no-ops.
func NewCallback(onSuccess SuccessFunc, onError ErrorFunc) *Callback {
	if onSuccess == nil {
		onSuccess = func(Reply) tea.Msg { return nil }
	}
	if onError == nil {
		onError = ignoreError
	}
	return &Callback{live: true, onSuccess: onSuccess, onError: onError}
}

// Fire routes res to the matching continuation and consumes the callback.
// Calls after the first return nil without invoking anything.
func (c *Callback) Fire(res Result) tea.Msg {
	onSuccess, onError, ok := c.take()
	if !ok {
		return nil
	}
	if res.Failed() {
		return onError(res.Err())
	}
	return onSuccess(res.Reply())
}

// Discard consumes the callback without invoking either continuation.
func (c *Callback) Discard() {
	c.take()
}

// Spent reports whether the callback has been fired or discarded.
func (c *Callback) Spent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.live
}

func (c *Callback) take() (SuccessFunc, ErrorFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.live {
		return nil, nil, false
	}
	onSuccess, onError := c.onSuccess, c.onError
	c.live = false
	c.onSuccess = nil
	c.onError = nil
	return onSuccess, onError, true
}

func ignoreError(string) tea.Msg { return nil }
