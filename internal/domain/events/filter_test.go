package events

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter_ListingRequiresUserID(t *testing.T) {
	_, err := BuildFilter(url.Values{}, FilterOptions{RequireUser: true})
	require.ErrorIs(t, err, ErrUserIDRequired)

	_, err = BuildFilter(url.Values{"userId": {"   "}}, FilterOptions{RequireUser: true})
	require.ErrorIs(t, err, ErrUserIDRequired)
}

func TestBuildFilter_UserOnly(t *testing.T) {
	f, err := BuildFilter(url.Values{"userId": {"u1"}}, FilterOptions{RequireUser: true})
	require.NoError(t, err)
	assert.Equal(t, Filter{UserID: "u1"}, f)

	assert.True(t, f.Matches(Event{UserID: "u1", EventType: "click", Name: "a"}))
	assert.True(t, f.Matches(Event{UserID: "u1", EventType: "view", Name: "b"}))
	assert.False(t, f.Matches(Event{UserID: "u2", EventType: "click", Name: "a"}))
}

func TestBuildFilter_IgnoresUnknownKeys(t *testing.T) {
	f, err := BuildFilter(url.Values{
		"userId":    {"u1"},
		"eventType": {"click"},
		"name":      {"button"},
		"$where":    {"1==1"},
		"limit":     {"5000"},
	}, FilterOptions{RequireUser: true})
	require.NoError(t, err)
	assert.Equal(t, Filter{UserID: "u1", EventType: "click", Name: "button"}, f)
}

func TestBuildFilter_ExportEmptyMeansAllWithCap(t *testing.T) {
	f, err := BuildFilter(url.Values{}, FilterOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	assert.Equal(t, 10, f.Limit)
	assert.True(t, f.Matches(Event{UserID: "anyone", EventType: "x", Name: "y"}))
}

func TestFilter_Capped(t *testing.T) {
	assert.Equal(t, 10, Filter{}.Capped(10).Limit)
	assert.Equal(t, 5, Filter{Limit: 5}.Capped(10).Limit)
	assert.Equal(t, 10, Filter{Limit: 50}.Capped(10).Limit)
	assert.Equal(t, 50, Filter{Limit: 50}.Capped(0).Limit)
}
