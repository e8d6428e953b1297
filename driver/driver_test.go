package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/avmcore/avm/timeline"
	"github.com/avmcore/avm/builtins"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) *timeline.Scene {
	t.Helper()
	in := value.NewInterner()
	lib := builtins.Bootstrap(in)
	rt, err := timeline.Bootstrap(lib, 5, 8)
	require.NoError(t, err)
	return rt.Scene
}

func TestTickAdvancesPlayingClipsAndWrapsFrame(t *testing.T) {
	scene := newTestScene(t)
	scene.Root().Play()
	scene.Root().SetFrame(5)

	d := New(scene, Backends{})
	var seen int
	d.FrameHandler = func(ctx context.Context, clip *timeline.Clip) *Action {
		seen = clip.CurrentFrame()
		return nil
	}

	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 1, scene.Root().CurrentFrame(), "frame should wrap past totalFrames back to 1")
	assert.Equal(t, 1, seen)
}

func TestTickSkipsStoppedClips(t *testing.T) {
	scene := newTestScene(t)
	scene.Root().Stop()
	scene.Root().SetFrame(2)

	d := New(scene, Backends{})
	called := false
	d.FrameHandler = func(ctx context.Context, clip *timeline.Clip) *Action {
		called = true
		return nil
	}

	require.NoError(t, d.Tick(context.Background()))
	assert.False(t, called)
	assert.Equal(t, 2, scene.Root().CurrentFrame())
}

func TestDrainActionsAggregatesErrorsWithoutStopping(t *testing.T) {
	scene := newTestScene(t)
	d := New(scene, Backends{})

	ran := 0
	d.Queue.Push(Action{Kind: ActionBytecode, Run: func(ctx context.Context) (value.Value, error) {
		ran++
		return value.Undefined, errors.New("first action failed")
	}})
	d.Queue.Push(Action{Kind: ActionBytecode, Run: func(ctx context.Context) (value.Value, error) {
		ran++
		return value.Undefined, nil
	}})
	d.Queue.Push(Action{Kind: ActionBytecode, Run: func(ctx context.Context) (value.Value, error) {
		ran++
		return value.Undefined, errors.New("third action failed")
	}})

	err := d.Tick(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, ran, "a failing action must not stop the rest of the drain")
	assert.Contains(t, err.Error(), "first action failed")
	assert.Contains(t, err.Error(), "third action failed")
}

func TestPumpLoadersEnqueuesActionOnCompletion(t *testing.T) {
	scene := newTestScene(t)
	d := New(scene, Backends{Navigator: fakeNavigator{payload: []byte("ok")}})

	var got []byte
	d.StartLoad(context.Background(), "http://example.com/vars.txt", func(data []byte, err error) *Action {
		got = data
		return &Action{Kind: ActionLoaderCallback, Run: func(context.Context) (value.Value, error) {
			return value.Undefined, nil
		}}
	})

	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, []byte("ok"), got)
	assert.Equal(t, 1, d.Queue.Len(), "the loader's callback action should be queued for the next drain")
}

type fakeNavigator struct {
	payload []byte
}

func (fakeNavigator) NavigateToURL(context.Context, string, string, string, map[string]string) error {
	return nil
}

func (f fakeNavigator) Fetch(ctx context.Context, url string) (<-chan []byte, <-chan error) {
	data := make(chan []byte, 1)
	data <- f.payload
	return data, make(chan error, 1)
}
