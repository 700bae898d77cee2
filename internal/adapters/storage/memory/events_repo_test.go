package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"event-reports/internal/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo events.Repository, n int) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Insert(context.Background(), events.Event{
			ID:        fmt.Sprintf("e%d", i),
			UserID:    fmt.Sprintf("u%d", i%2),
			EventType: "click",
			Name:      fmt.Sprintf("n%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestEventRepo_FindKeepsStorageOrder(t *testing.T) {
	repo := NewEventRepo()
	seed(t, repo, 5)

	got, err := repo.Find(context.Background(), events.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, fmt.Sprintf("e%d", i), e.ID)
	}
}

func TestEventRepo_StreamAppliesFilterAndLimit(t *testing.T) {
	repo := NewEventRepo()
	seed(t, repo, 10)

	var ids []string
	for e, err := range repo.Stream(context.Background(), events.Filter{UserID: "u1", Limit: 3}) {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"e1", "e3", "e5"}, ids)
}

func TestEventRepo_RejectsDuplicateID(t *testing.T) {
	repo := NewEventRepo()
	e := events.Event{ID: "dup", UserID: "u", EventType: "t", Name: "n"}
	require.NoError(t, repo.Insert(context.Background(), e))
	assert.Error(t, repo.Insert(context.Background(), e))
}

func TestEventRepo_StreamStopsOnCanceledContext(t *testing.T) {
	repo := NewEventRepo()
	seed(t, repo, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range repo.Stream(ctx, events.Filter{}) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestEventRepo_ConcurrentInsertAndStream(t *testing.T) {
	repo := NewEventRepo()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = repo.Insert(context.Background(), events.Event{
					ID: fmt.Sprintf("w%d-%d", w, i), UserID: "u", EventType: "t", Name: "n",
				})
				for range repo.Stream(context.Background(), events.Filter{Limit: 5}) {
				}
			}
		}(w)
	}
	wg.Wait()

	got, err := repo.Find(context.Background(), events.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 200)
}
