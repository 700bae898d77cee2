package events

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	items     []Event
	insertErr error
}

func (r *testRepo) Insert(ctx context.Context, e Event) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.items = append(r.items, e)
	return nil
}

func (r *testRepo) Find(ctx context.Context, f Filter) ([]Event, error) {
	out := make([]Event, 0)
	for e, err := range r.Stream(ctx, f) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *testRepo) Stream(ctx context.Context, f Filter) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		n := 0
		for _, e := range r.items {
			if !f.Matches(e) {
				continue
			}
			if f.Limit > 0 && n >= f.Limit {
				return
			}
			n++
			if !yield(e, nil) {
				return
			}
		}
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_AssignsIDAndTimestamps(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	info := "clicked"
	e, err := svc.Create(context.Background(), CreateInput{
		UserID:    "u1",
		EventType: "click",
		Name:      "button",
		Info:      &info,
		Data:      json.RawMessage(`{"x":1}`),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)
	assert.Equal(t, "clicked", e.InfoOrEmpty())
	assert.True(t, e.HasData())
	require.Len(t, repo.items, 1)
}

func TestService_Create_RequiresFields(t *testing.T) {
	svc := NewService(&testRepo{})

	cases := []CreateInput{
		{EventType: "click", Name: "button"},
		{UserID: "u1", Name: "button"},
		{UserID: "u1", EventType: "click"},
		{UserID: " ", EventType: "click", Name: "button"},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestService_Create_NullDataIsAbsent(t *testing.T) {
	svc := NewService(&testRepo{})

	e, err := svc.Create(context.Background(), CreateInput{
		UserID: "u1", EventType: "click", Name: "button",
		Data: json.RawMessage(`null`),
	})
	require.NoError(t, err)
	assert.False(t, e.HasData())
	assert.Nil(t, e.Data)
}

func TestService_Create_PropagatesStoreError(t *testing.T) {
	boom := errors.New("store down")
	svc := NewService(&testRepo{insertErr: boom})

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", EventType: "click", Name: "button"})
	assert.ErrorIs(t, err, boom)
}

func TestService_List_FiltersByEquality(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{UserID: "u1", EventType: "click", Name: "a"},
		{UserID: "u1", EventType: "view", Name: "b"},
		{UserID: "u2", EventType: "click", Name: "a"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, Filter{UserID: "u1", EventType: "click"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}
