package gateway

import (
	"fmt"
)

// Handler processes one inbound event kind.
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, c *Client) error
}

// Context is what handlers get to reach the server's collaborators.
type Context struct {
	S *Server
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return fmt.Errorf("no handler for event=%q", f.Event)
	}
	return h.Handle(ctx, f, c)
}
