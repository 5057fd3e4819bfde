// Package firehose follows the dashboard's websocket stream of job events.
package firehose

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/CoopHive/bacalhau/pkg/model"
)

const (
	DefaultReconnectDelay = time.Second
	DefaultKeepAlive      = time.Second
	writeWait             = 5 * time.Second
)

type Option func(*EventFirehose)

func WithReconnectDelay(delay time.Duration) Option {
	return func(f *EventFirehose) { f.reconnectDelay = delay }
}

func WithKeepAlive(interval time.Duration) Option {
	return func(f *EventFirehose) { f.keepAlive = interval }
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(f *EventFirehose) { f.dialer = dialer }
}

// EventFirehose keeps a websocket open to url and decodes every message
// into a job event. Dropped connections are redialled until the context
// passed to Start is done.
type EventFirehose struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	keepAlive      time.Duration

	mu         sync.Mutex
	connection *websocket.Conn
}

func NewEventFirehose(url string, options ...Option) *EventFirehose {
	f := &EventFirehose{
		url:            url,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: DefaultReconnectDelay,
		keepAlive:      DefaultKeepAlive,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// Start streams events until ctx is done, then closes the returned channel.
func (f *EventFirehose) Start(ctx context.Context) <-chan model.JobEvent {
	events := make(chan model.JobEvent)
	loops, loopCtx := errgroup.WithContext(ctx)
	loops.Go(func() error {
		f.connectLoop(loopCtx, events)
		return nil
	})
	loops.Go(func() error {
		f.keepAliveLoop(loopCtx)
		return nil
	})
	go func() {
		<-loopCtx.Done()
		f.closeConnection()
		_ = loops.Wait()
		close(events)
	}()
	return events
}

func (f *EventFirehose) connectLoop(ctx context.Context, events chan<- model.JobEvent) {
	for {
		if err := f.connect(ctx, events); err != nil && ctx.Err() == nil {
			log.Ctx(ctx).Debug().Msgf("websocket connection error %s", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *EventFirehose) keepAliveLoop(ctx context.Context) {
	ticker := time.NewTicker(f.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		f.mu.Lock()
		connection := f.connection
		f.mu.Unlock()
		if connection == nil {
			continue
		}
		err := connection.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
		if err != nil {
			log.Ctx(ctx).Debug().Msgf("keepalive error %s", err.Error())
		}
	}
}

func (f *EventFirehose) connect(ctx context.Context, events chan<- model.JobEvent) error {
	connection, res, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	if res != nil && res.Body != nil {
		res.Body.Close()
	}

	f.mu.Lock()
	if ctx.Err() != nil {
		f.mu.Unlock()
		connection.Close()
		return ctx.Err()
	}
	f.connection = connection
	f.mu.Unlock()
	defer f.closeConnection()

	log.Ctx(ctx).Debug().Msgf("websocket connected %s", f.url)
	for {
		_, envelopeBytes, err := connection.ReadMessage()
		if err != nil {
			return err
		}
		var event model.JobEvent
		if err := json.Unmarshal(envelopeBytes, &event); err != nil {
			log.Ctx(ctx).Debug().Msgf("websocket json parse error: '%s' - %s", string(envelopeBytes), err.Error())
			continue
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *EventFirehose) closeConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connection != nil {
		f.connection.Close()
		f.connection = nil
	}
}

// JobTriggers turns the events of one job into refresh triggers. Triggers
// that arrive while one is already pending are merged into it, so a slow
// consumer sees at most one outstanding trigger.
func JobTriggers(ctx context.Context, events <-chan model.JobEvent, jobID string) <-chan struct{} {
	triggers := make(chan struct{}, 1)
	go func() {
		defer close(triggers)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if event.JobID != jobID {
					continue
				}
				select {
				case triggers <- struct{}{}:
				default:
				}
			}
		}
	}()
	return triggers
}
