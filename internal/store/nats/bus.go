package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gosuda/tasktrack/internal/domain"
)

const (
	subjectPrefix = "tasktrack."
	flushTimeout  = 2 * time.Second
)

// Connect dials the NATS server at url with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("tasktrack"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats.Connect: %w", err)
	}
	return nc, nil
}

// Bus carries task events over core NATS subjects. Delivery is at most
// once, matching Redis pub/sub.
type Bus struct {
	conn *nats.Conn
}

func NewBus(conn *nats.Conn) *Bus {
	return &Bus{conn: conn}
}

// Subject maps a channel name such as "task:42" onto "tasktrack.task.42".
func Subject(channel string) string {
	return subjectPrefix + strings.ReplaceAll(channel, ":", ".")
}

// PublishEvent sends e as JSON on its task's subject.
func (b *Bus) PublishEvent(_ context.Context, e *domain.Event) error {
	payload, err := e.Encode()
	if err != nil {
		return fmt.Errorf("nats.Bus.PublishEvent: %w", err)
	}
	if err := b.conn.Publish(Subject(domain.TaskChannel(e.TaskID)), payload); err != nil {
		return fmt.Errorf("nats.Bus.PublishEvent: %w", err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	msgs := make(chan *nats.Msg, 64)

	sub, err := b.conn.ChanSubscribe(Subject(channel), msgs)
	if err != nil {
		return nil, nil, fmt.Errorf("nats.Bus.Subscribe: %w", err)
	}

	// Make sure the server knows about the subscription before returning.
	if err := b.flush(ctx); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("nats.Bus.Subscribe: flush: %w", err)
	}

	out := make(chan []byte, 64)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg := <-msgs:
				select {
				case out <- msg.Data:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			close(done)
		})
	}

	return out, cleanup, nil
}

// Ping checks the connection by round-tripping a flush.
func (b *Bus) Ping(ctx context.Context) error {
	if err := b.flush(ctx); err != nil {
		return fmt.Errorf("nats.Bus.Ping: %w", err)
	}
	return nil
}

// flush needs a deadline; callers without one get flushTimeout.
func (b *Bus) flush(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	return b.conn.FlushWithContext(ctx)
}
