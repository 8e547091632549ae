// Package broker hands the progress stream of a background job to the client that asks for it.
package broker

import (
	"context"

	"github.com/myrjola/taalquest/internal/errors"
)

// ErrStopped is returned when the broker is no longer running.
var ErrStopped = errors.NewSentinel("broker stopped")

type publication[TID comparable, TPayload any] struct {
	id      TID
	channel <-chan TPayload
}

type subscription[TID comparable, TPayload any] struct {
	id    TID
	reply chan (<-chan TPayload)
}

// Broker passes a channel with ID from producer to the first consumer.
// The subsequent consumers block until the producer is finished so that they
// can resolve the situation e.g. by fetching the persisted result.
//
// The producer is a job goroutine spawned by an HTTP POST and the first consumer
// is the handler streaming the job progress over SSE. Subsequent consumers are
// likely caused by reconnects.
type Broker[TID comparable, TPayload any] struct {
	stopped     chan struct{}
	publishCh   chan publication[TID, TPayload]
	unpublishCh chan TID
	subscribeCh chan subscription[TID, TPayload]
}

// New creates a Broker. Run must be called for it to serve requests.
func New[TID comparable, TPayload any]() *Broker[TID, TPayload] {
	return &Broker[TID, TPayload]{
		stopped:     make(chan struct{}),
		publishCh:   make(chan publication[TID, TPayload]),
		unpublishCh: make(chan TID),
		subscribeCh: make(chan subscription[TID, TPayload]),
	}
}

// Run serves publish, unpublish and subscribe requests until ctx is done.
func (b *Broker[TID, TPayload]) Run(ctx context.Context) {
	defer close(b.stopped)
	published := map[TID]<-chan TPayload{}
	taken := map[TID]bool{}
	waiting := map[TID][]chan (<-chan TPayload){}
	for {
		select {
		case <-ctx.Done():
			for _, replies := range waiting {
				for _, reply := range replies {
					close(reply)
				}
			}
			return

		case s := <-b.subscribeCh:
			c, ok := published[s.id]
			switch {
			case !ok:
				// Unknown or already finished.
				close(s.reply)
			case !taken[s.id]:
				taken[s.id] = true
				s.reply <- c
			default:
				waiting[s.id] = append(waiting[s.id], s.reply)
			}

		case p := <-b.publishCh:
			published[p.id] = p.channel

		case id := <-b.unpublishCh:
			for _, reply := range waiting[id] {
				close(reply)
			}
			delete(published, id)
			delete(taken, id)
			delete(waiting, id)
		}
	}
}

// Publish makes channel available to the first subscriber of id.
func (b *Broker[TID, TPayload]) Publish(ctx context.Context, id TID, channel <-chan TPayload) error {
	select {
	case b.publishCh <- publication[TID, TPayload]{id: id, channel: channel}:
		return nil
	case <-b.stopped:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "publish")
	}
}

// Unpublish removes id from the broker and releases the subscribers waiting for it.
//
// Subscribers that did not get the channel are not able to receive it after this, so the producer should
// persist its result before unpublishing when nobody consumed it.
func (b *Broker[TID, TPayload]) Unpublish(ctx context.Context, id TID) error {
	select {
	case b.unpublishCh <- id:
		return nil
	case <-b.stopped:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "unpublish")
	}
}

// Subscribe returns the channel published with id. The first subscriber receives the channel and ok is true.
// Later subscribers block until the producer unpublishes and then get ok false, as do subscribers of unknown IDs.
func (b *Broker[TID, TPayload]) Subscribe(ctx context.Context, id TID) (<-chan TPayload, bool, error) {
	reply := make(chan (<-chan TPayload), 1)
	select {
	case b.subscribeCh <- subscription[TID, TPayload]{id: id, reply: reply}:
	case <-b.stopped:
		return nil, false, ErrStopped
	case <-ctx.Done():
		return nil, false, errors.Wrap(ctx.Err(), "subscribe")
	}
	select {
	case c, ok := <-reply:
		return c, ok, nil
	case <-ctx.Done():
		return nil, false, errors.Wrap(ctx.Err(), "wait for producer")
	}
}
