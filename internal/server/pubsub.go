package server

import (
	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
)

// publish replies with the number of topics the message was handed to
// (exact channel plus matching patterns), not the number of receivers.
func publish(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("publish")
	}
	return resp.MakeInteger(int64(ctx.store.Publish(ctx.arg(0), ctx.arg(1))))
}

// delivery pairs a received message with the subscribed name it arrived
// through, so pattern deliveries can report which pattern matched.
type delivery struct {
	source string
	msg    store.Message
}

// Subscribe switches the connection into subscriber mode: it acknowledges
// each subscription, then blocks delivering messages until the client
// disconnects or the engine shuts down. Commands the client sends while
// subscribed are read and discarded; disconnect detection rides on that
// read loop.
func (e *Engine) Subscribe(p *Peer, pattern bool, names []string) error {
	kind := "subscribe"
	if pattern {
		kind = "psubscribe"
	}

	msgs := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	subs := make([]*store.Subscription, 0, len(names))
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	for i, name := range names {
		var sub *store.Subscription
		if pattern {
			sub = e.store.PSubscribe(name)
		} else {
			sub = e.store.Subscribe(name)
		}
		subs = append(subs, sub)

		ack := resp.MakeArray([]resp.Value{
			resp.MakeBulkString(kind),
			resp.MakeBulkString(name),
			resp.MakeInteger(int64(i + 1)),
		})
		if err := p.Send(ack); err != nil {
			return err
		}

		go func(name string, sub *store.Subscription) {
			for {
				select {
				case msg := <-sub.C:
					select {
					case msgs <- delivery{source: name, msg: msg}:
					case <-done:
						return
					}
				case <-done:
					return
				}
			}
		}(name, sub)
	}
	if err := p.Flush(); err != nil {
		return err
	}

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, err := p.ReadCommand(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case d := <-msgs:
			var v resp.Value
			if pattern {
				v = resp.MakeArray([]resp.Value{
					resp.MakeBulkString("pmessage"),
					resp.MakeBulkString(d.source),
					resp.MakeBulkString(d.msg.Channel),
					resp.MakeBulkString(d.msg.Payload),
				})
			} else {
				v = resp.MakeArray([]resp.Value{
					resp.MakeBulkString("message"),
					resp.MakeBulkString(d.msg.Channel),
					resp.MakeBulkString(d.msg.Payload),
				})
			}
			if err := p.Send(v); err != nil {
				return err
			}
			if err := p.Flush(); err != nil {
				return err
			}
		case <-clientGone:
			return nil
		case <-e.stop:
			return nil
		}
	}
}
