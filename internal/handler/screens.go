package handler

import (
	"context"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
	"go.uber.org/zap"
)

// Screen is one browser session's weather screen.
type Screen struct {
	*viewstate.Controller

	mu        sync.Mutex
	lastQuery string
	lastSeen  time.Time
}

// Search records the query for the search bar and starts the lookup. Both
// happen under one lock so the search bar always matches the latest search.
func (s *Screen) Search(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = query
	s.Controller.Search(query)
}

// LastQuery is the text of the most recent search, shown back in the search bar.
func (s *Screen) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func (s *Screen) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Screen) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Screens keeps one Screen per session id and evicts the ones nobody looked
// at for longer than the idle timeout.
type Screens struct {
	fetcher     viewstate.Fetcher
	idleTimeout time.Duration
	log         *zap.SugaredLogger

	mu      sync.Mutex
	screens map[string]*Screen
}

func NewScreens(fetcher viewstate.Fetcher, idleTimeout ...time.Duration) *Screens {
	timeout := config.GetScreenIdleTimeout()
	if len(idleTimeout) > 0 && idleTimeout[0] > 0 {
		timeout = idleTimeout[0]
	}
	return &Screens{
		fetcher:     fetcher,
		idleTimeout: timeout,
		log:         config.GetLogger().Named("screens"),
		screens:     make(map[string]*Screen),
	}
}

// Get returns the screen for id, creating it on first use.
func (s *Screens) Get(id string) *Screen {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screens[id]
	if !ok {
		sc = &Screen{Controller: viewstate.NewController(s.fetcher)}
		s.screens[id] = sc
		s.log.Debugw("Screen created", "session", id)
	}
	sc.touch(now)
	return sc
}

// Len is the number of live screens.
func (s *Screens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

// sweep closes and forgets screens idle for longer than the idle timeout.
func (s *Screens) sweep(now time.Time) int {
	var stale []*Screen
	s.mu.Lock()
	for id, sc := range s.screens {
		if sc.idleSince(now) > s.idleTimeout {
			stale = append(stale, sc)
			delete(s.screens, id)
		}
	}
	s.mu.Unlock()

	for _, sc := range stale {
		sc.Close()
	}
	if len(stale) > 0 {
		s.log.Infow("Evicted idle screens", "count", len(stale))
	}
	return len(stale)
}

// StartCleanup periodically evicts idle screens until ctx is done.
func (s *Screens) StartCleanup(ctx context.Context) {
	period := s.idleTimeout / 2
	if period > time.Minute {
		period = time.Minute
	}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

// Close shuts every screen down.
func (s *Screens) Close() {
	s.mu.Lock()
	all := s.screens
	s.screens = make(map[string]*Screen)
	s.mu.Unlock()

	for _, sc := range all {
		sc.Close()
	}
}
