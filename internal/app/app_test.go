package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"event-reports/internal/config"
	"event-reports/internal/domain/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }

func memoryConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Storage.DatabaseURL = config.MemoryDSN
	cfg.Auth.Password = "pw"
	cfg.Reports.Dir = t.TempDir()
	cfg.Reports.ScratchDir = t.TempDir()
	return cfg
}

func TestBuild_MemoryStores(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Events)
	require.NotNil(t, a.Orchestrator)
	require.NotNil(t, a.Sweeper)

	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/export", nil)
	req.SetBasicAuth("admin", "pw")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/export", nil)
	req.SetBasicAuth("admin", "wrong")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestBuild_RedisJobs(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig(t)
	cfg.Storage.RedisURL = "redis://" + mr.Addr()

	a, err := Build(context.Background(), cfg, nil, WithNotifier(nopNotifier{}))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Orchestrator.Submit(context.Background(), "ops@example.com", events.Filter{})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestBuild_BadRedisURL(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.RedisURL = "not-a-url"

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
