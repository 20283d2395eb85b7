package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_PicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Nil(t, w.Current(), "no file yet means no overrides")

	changes := make(chan *Overrides, 4)
	w.OnChange(func(o *Overrides) { changes <- o })

	require.NoError(t, os.WriteFile(path, []byte(`{"placesTtlSeconds": 120}`), 0o644))

	select {
	case o := <-changes:
		assert.Equal(t, 2*time.Minute, o.PlacesTTL())
		assert.Equal(t, time.Duration(0), o.RoutesTTL(), "unset override reports zero")
	case <-time.After(3 * time.Second):
		t.Fatal("change not observed")
	}
}

func TestWatcher_MalformedFileKeepsPreviousOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"routesTtlSeconds": 60}`), 0o644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Stop()

	require.NotNil(t, w.Current())
	require.Equal(t, time.Minute, w.Current().RoutesTTL())

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, time.Minute, w.Current().RoutesTTL())
}

func TestWatcher_OnChangeReplaysCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"placesTtlSeconds": 300}`), 0o644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Stop()

	called := make(chan *Overrides, 1)
	w.OnChange(func(o *Overrides) { called <- o })

	select {
	case o := <-called:
		assert.Equal(t, 5*time.Minute, o.PlacesTTL())
	case <-time.After(time.Second):
		t.Fatal("existing overrides not replayed to late subscriber")
	}
}

func TestOverrides_NilSafety(t *testing.T) {
	var o *Overrides
	assert.Equal(t, time.Duration(0), o.PlacesTTL())
	assert.Equal(t, time.Duration(0), o.RoutesTTL())

	negative := -5
	o = &Overrides{PlacesTTLSeconds: &negative}
	assert.Equal(t, time.Duration(0), o.PlacesTTL())
}
