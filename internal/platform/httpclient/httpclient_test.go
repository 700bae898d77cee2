package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_SendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/things", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v", in["k"])

		w.Header().Set("X-Message-Id", "m-1")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v3/", time.Second, WithHeader("Authorization", "Bearer k"))
	require.NoError(t, err)

	var out struct{ OK bool }
	res, err := c.DoJSON(context.Background(), http.MethodPost, "things", map[string]string{"k": "v"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "m-1", res.Header.Get("X-Message-Id"))
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New("", time.Second)
	require.NoError(t, err)

	_, err = c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Equal(t, "nope", he.Body)
}

func TestDoJSON_RelativePathNeedsBaseURL(t *testing.T) {
	c, err := New("", 0)
	require.NoError(t, err)

	_, err = c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.Error(t, err)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("::not a url", time.Second)
	assert.Error(t, err)
}
