package broker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/myrjola/taalquest/internal/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	type testCase struct {
		name     string
		testFunc func(t *testing.T, b *broker.Broker[string, int])
	}
	tests := []testCase{
		{
			name: "subscriber receives content",
			testFunc: func(t *testing.T, b *broker.Broker[string, int]) {
				ctx := context.Background()
				channel := make(chan int)
				require.NoError(t, b.Publish(ctx, "job", channel))
				go func() {
					channel <- 42
					close(channel)
					assert.NoError(t, b.Unpublish(ctx, "job"))
				}()
				c, ok, err := b.Subscribe(ctx, "job")
				require.NoError(t, err)
				require.True(t, ok)
				require.Equal(t, 42, <-c)
				_, open := <-c
				require.False(t, open, "channel not closed")
			},
		},
		{
			name: "unknown job",
			testFunc: func(t *testing.T, b *broker.Broker[string, int]) {
				c, ok, err := b.Subscribe(context.Background(), "missing")
				require.NoError(t, err)
				require.False(t, ok)
				require.Nil(t, c)
			},
		},
		{
			name: "subsequent subscribers block until producer is finished",
			testFunc: func(t *testing.T, b *broker.Broker[string, int]) {
				ctx := context.Background()
				channel := make(chan int)
				require.NoError(t, b.Publish(ctx, "job", channel))
				var producerFinished atomic.Bool

				c, ok, err := b.Subscribe(ctx, "job")
				require.NoError(t, err)
				require.True(t, ok)

				released := make(chan struct{})
				go func() {
					defer close(released)
					next, nextOK, nextErr := b.Subscribe(ctx, "job")
					assert.NoError(t, nextErr)
					assert.False(t, nextOK)
					assert.Nil(t, next)
					assert.True(t, producerFinished.Load(), "subsequent subscriber unblocked before producer finished")
				}()

				go func() {
					channel <- 1
					close(channel)
					producerFinished.Store(true)
					assert.NoError(t, b.Unpublish(ctx, "job"))
				}()
				require.Equal(t, 1, <-c)

				select {
				case <-released:
				case <-time.After(time.Second):
					t.Fatal("subsequent subscriber was not released")
				}
			},
		},
		{
			name: "waiting subscriber gives up with its context",
			testFunc: func(t *testing.T, b *broker.Broker[string, int]) {
				require.NoError(t, b.Publish(context.Background(), "job", make(chan int)))
				_, _, err := b.Subscribe(context.Background(), "job")
				require.NoError(t, err)

				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, ok, err := b.Subscribe(ctx, "job")
				require.ErrorIs(t, err, context.DeadlineExceeded)
				require.False(t, ok)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			b := broker.New[string, int]()
			go b.Run(ctx)
			t.Cleanup(cancel)
			tt.testFunc(t, b)
		})
	}
}

func TestBroker_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := broker.New[string, int]()
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	require.ErrorIs(t, b.Publish(context.Background(), "job", make(chan int)), broker.ErrStopped)
	_, _, err := b.Subscribe(context.Background(), "job")
	require.ErrorIs(t, err, broker.ErrStopped)
}
