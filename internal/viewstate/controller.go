package viewstate

import (
	"context"
	"sync"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"go.uber.org/zap"
)

// Fetcher resolves a location query into a terminal state (Success or Error).
type Fetcher interface {
	Fetch(ctx context.Context, query string) State
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, query string) State

func (f FetcherFunc) Fetch(ctx context.Context, query string) State {
	return f(ctx, query)
}

// Update is what subscribers receive: the state and the search sequence
// number that produced it (0 while Idle).
type Update struct {
	Seq   uint64
	State State
}

// Controller owns exactly one State. All transitions happen under mu, which
// serializes them the way a UI event loop would.
//
// Every search gets the next sequence number. Starting a search cancels the
// fetch of the previous one, and a completion whose number is no longer the
// latest is dropped, so the last search issued always decides the final state.
type Controller struct {
	fetcher Fetcher
	log     *zap.SugaredLogger

	mu       sync.Mutex
	current  Update
	cancel   context.CancelFunc
	subs     map[int]chan Update
	nextSub  int
	closed   bool
	inflight sync.WaitGroup
}

func NewController(fetcher Fetcher) *Controller {
	return &Controller{
		fetcher: fetcher,
		log:     config.GetLogger().Named("viewstate"),
		current: Update{State: Idle{}},
		subs:    make(map[int]chan Update),
	}
}

// State returns the current value.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.State
}

// Current returns the current value together with its sequence number.
func (c *Controller) Current() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Search moves the state to Loading before returning and resolves the query
// on a separate goroutine. The query is passed through untouched.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	seq := c.current.Seq + 1
	c.setLocked(Update{Seq: seq, State: Loading{Query: query}})

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()
		c.complete(seq, c.fetch(ctx, query))
	}()
}

func (c *Controller) fetch(ctx context.Context, query string) (st State) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("Fetch panicked", "query", query, "panic", r)
			st = Error{Message: "Something went wrong while loading the weather"}
		}
	}()
	st = c.fetcher.Fetch(ctx, query)
	if !IsTerminal(st) {
		c.log.Errorw("Fetcher returned a non-terminal state", "query", query, "state", Name(st))
		return Error{Message: "Something went wrong while loading the weather"}
	}
	return st
}

func (c *Controller) complete(seq uint64, st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if seq != c.current.Seq {
		c.log.Debugw("Dropping stale completion", "seq", seq, "latest", c.current.Seq, "state", Name(st))
		return
	}
	c.cancel = nil
	c.setLocked(Update{Seq: seq, State: st})
}

func (c *Controller) setLocked(u Update) {
	c.current = u
	for _, ch := range c.subs {
		publish(ch, u)
	}
}

// publish replaces whatever the subscriber has not read yet. Only the
// controller sends, and always under mu, so the send never blocks.
func publish(ch chan Update, u Update) {
	select {
	case <-ch:
	default:
	}
	ch <- u
}

// Subscribe returns a channel that immediately holds the current value and
// then receives every transition. A slow reader only ever sees the newest
// value. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Update, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.current

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels any in-flight fetch, waits for it to return and closes every
// subscription. Searches after Close are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.inflight.Wait()
}
