package handler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantFetcher() viewstate.Fetcher {
	return viewstate.FetcherFunc(func(ctx context.Context, query string) viewstate.State {
		return viewstate.Success{Snapshot: paris}
	})
}

func TestScreens_GetReusesScreen(t *testing.T) {
	screens := NewScreens(instantFetcher(), time.Minute)
	defer screens.Close()

	a := screens.Get("a")
	assert.Same(t, a, screens.Get("a"))
	assert.NotSame(t, a, screens.Get("b"))
	assert.Equal(t, 2, screens.Len())
	assert.Equal(t, viewstate.Idle{}, a.State())
}

func TestScreen_SearchRemembersQuery(t *testing.T) {
	screens := NewScreens(instantFetcher(), time.Minute)
	defer screens.Close()

	sc := screens.Get("a")
	assert.Empty(t, sc.LastQuery())
	sc.Search("  Paris ")
	assert.Equal(t, "  Paris ", sc.LastQuery())

	require.Eventually(t, func() bool {
		_, ok := sc.State().(viewstate.Success)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestScreen_ConcurrentSearchesKeepQueryAndStateTogether(t *testing.T) {
	blocking := viewstate.FetcherFunc(func(ctx context.Context, query string) viewstate.State {
		<-ctx.Done()
		return viewstate.Error{Message: "canceled"}
	})
	screens := NewScreens(blocking, time.Minute)
	defer screens.Close()
	sc := screens.Get("a")

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sc.Search(fmt.Sprintf("city-%d", i))
			}(i)
		}
		wg.Wait()

		loading, ok := sc.State().(viewstate.Loading)
		require.True(t, ok)
		assert.Equal(t, loading.Query, sc.LastQuery(), "round %d", round)
	}
}

func TestScreens_SweepEvictsIdle(t *testing.T) {
	screens := NewScreens(instantFetcher(), time.Minute)
	defer screens.Close()

	stale := screens.Get("stale")
	updates, _ := stale.Subscribe()
	<-updates
	screens.Get("fresh").touch(time.Now().Add(2 * time.Minute))

	evicted := screens.sweep(time.Now().Add(90 * time.Second))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, screens.Len())

	// Evicted screens close their subscriptions.
	_, open := <-updates
	assert.False(t, open)

	// Nothing left to evict.
	assert.Zero(t, screens.sweep(time.Now().Add(90*time.Second)))
}

func TestScreens_DefaultIdleTimeoutFromConfig(t *testing.T) {
	screens := NewScreens(instantFetcher())
	defer screens.Close()
	assert.Equal(t, 5*time.Minute, screens.idleTimeout)
}

func TestScreens_CloseShutsEveryScreen(t *testing.T) {
	screens := NewScreens(instantFetcher(), time.Minute)

	updates, _ := screens.Get("a").Subscribe()
	<-updates
	screens.Close()

	_, open := <-updates
	assert.False(t, open)
	assert.Zero(t, screens.Len())
}

func TestScreens_StartCleanupStopsWithContext(t *testing.T) {
	screens := NewScreens(instantFetcher(), 20*time.Millisecond)
	defer screens.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	screens.StartCleanup(ctx)

	screens.Get("a")
	require.Eventually(t, func() bool { return screens.Len() == 0 }, time.Second, 5*time.Millisecond)
}
