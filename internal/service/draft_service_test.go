package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakeDraftCache struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newFakeDraftCache() *fakeDraftCache {
	return &fakeDraftCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeDraftCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeDraftCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = data
	f.ttls[key] = ttl
	return nil
}

func (f *fakeDraftCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestDraftSaveAndGetScopedToPair(t *testing.T) {
	cache := newFakeDraftCache()
	svc := NewDraftService(cache, 72*time.Hour, nil, nil)

	saved, err := svc.Save(context.Background(), "asg-1", "stu-1", SaveDraftRequest{GithubURL: "https://github.com/stu/repo"})
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, cache.ttls[draftKey("asg-1", "stu-1")])

	draft, err := svc.Get(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, saved.GithubURL, draft.GithubURL)

	_, err = svc.Get(context.Background(), "asg-2", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "asg-1", "stu-2")
	require.Error(t, err)
}

func TestDraftClearRemovesEntry(t *testing.T) {
	cache := newFakeDraftCache()
	svc := NewDraftService(cache, time.Hour, nil, nil)

	_, err := svc.Save(context.Background(), "asg-1", "stu-1", SaveDraftRequest{GithubURL: "https://github.com/stu/repo"})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "asg-1", "stu-1"))
	_, err = svc.Get(context.Background(), "asg-1", "stu-1")
	assert.Error(t, err)

	// Clearing twice stays quiet.
	assert.NoError(t, svc.Clear(context.Background(), "asg-1", "stu-1"))
}

func TestDraftSaveRejectsBadURL(t *testing.T) {
	svc := NewDraftService(newFakeDraftCache(), time.Hour, nil, nil)

	_, err := svc.Save(context.Background(), "asg-1", "stu-1", SaveDraftRequest{GithubURL: "not a url"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
