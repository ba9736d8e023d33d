package tap

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/arvista/frametap/lib/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchDeliversBothPaths(t *testing.T) {
	obs := &countingObserver{}
	tp := New("both-paths", obs, true)
	defer tp.Close()

	frame := normalFrame(4, 4)
	tp.Dispatch(frame, 7, ar.Rotation0)

	assert.Equal(t, uint64(1), obs.textures.Load())
	assert.Equal(t, uint64(1), obs.cpus.Load())
	assert.Equal(t, 1, frame.acquires)
	assert.Equal(t, 1, frame.img.releases)
	assert.Equal(t, uint64(1), tp.Frames())
}

func TestDispatchWithoutCPUImages(t *testing.T) {
	obs := &countingObserver{}
	tp := New("texture-only", obs, false)
	defer tp.Close()

	frame := normalFrame(4, 4)
	tp.Dispatch(frame, 7, ar.Rotation0)

	assert.Equal(t, uint64(1), obs.textures.Load())
	assert.Equal(t, uint64(0), obs.cpus.Load())
	assert.Equal(t, 0, frame.acquires)
}

func TestSingleFlightDropsOverlappingDispatch(t *testing.T) {
	obs := newBlockingObserver()
	tp := New("single-flight", obs, false)
	defer tp.Close()

	done := make(chan struct{})
	go func() {
		tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
		close(done)
	}()

	select {
	case <-obs.entered:
	case <-time.After(time.Second):
		t.Fatal("first dispatch never reached the observer")
	}

	// second dispatch must drop immediately, not wait for the first
	start := time.Now()
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	require.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Equal(t, uint64(1), obs.textures.Load())
	assert.Equal(t, uint64(1), tp.Dropped())

	close(obs.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("first dispatch never finished")
	}

	// latch must be clear again
	obs.release = make(chan struct{})
	close(obs.release)
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	<-obs.entered
	assert.Equal(t, uint64(2), obs.textures.Load())
}

// makeCollectableTap binds a tap to an observer that goes out of reach as
// soon as this function returns.
func makeCollectableTap() *Tap[gcObserver, *gcObserver] {
	obs := &gcObserver{}
	tp := New("collectable", obs, false)
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	return tp
}

func TestDispatchStopsAfterObserverCollected(t *testing.T) {
	before := gcDeliveries.Load()
	tp := makeCollectableTap()
	require.Equal(t, before+1, gcDeliveries.Load())

	runtime.GC()
	runtime.GC()

	assert.False(t, tp.IsValid())
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	assert.Equal(t, before+1, gcDeliveries.Load())

	// latch ends cleared even on the observer-gone path
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	assert.Equal(t, uint64(3), tp.Frames())
}

func TestDispatchAfterClose(t *testing.T) {
	obs := &countingObserver{}
	tp := New("closed", obs, false)
	tp.Close()
	tp.Close() // second close is a no-op

	assert.False(t, tp.IsValid())
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	assert.Equal(t, uint64(0), obs.textures.Load())
}

func TestDispatchSkipsWhenCameraMissing(t *testing.T) {
	obs := &countingObserver{}
	tp := New("no-camera", obs, true)
	defer tp.Close()

	frame := normalFrame(4, 4)
	frame.camera = nil
	tp.Dispatch(frame, 1, ar.Rotation0)

	assert.Equal(t, uint64(0), obs.textures.Load())
	assert.Equal(t, 0, frame.acquires)

	// gate is open again for the next tick
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	assert.Equal(t, uint64(1), obs.textures.Load())
}

func TestDispatchSkipsWhenNotReady(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*fakeFrame)
	}{
		{"tracking limited", func(f *fakeFrame) {
			f.camera.(*fakeCamera).state = ar.TrackingLimited
		}},
		{"image data unavailable", func(f *fakeFrame) {
			f.camera.(*fakeCamera).loadOK = false
		}},
		{"zero width", func(f *fakeFrame) {
			f.camera.(*fakeCamera).width = 0
		}},
		{"negative height", func(f *fakeFrame) {
			f.camera.(*fakeCamera).height = -1
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := &countingObserver{}
			tp := New("not-ready-"+tc.name, obs, true)
			defer tp.Close()

			frame := normalFrame(4, 4)
			tc.tweak(frame)
			tp.Dispatch(frame, 1, ar.Rotation0)

			assert.Equal(t, uint64(0), obs.textures.Load())
			assert.Equal(t, uint64(0), obs.cpus.Load())
			assert.Equal(t, 0, frame.acquires)
		})
	}
}

func TestObserverPanicIsContained(t *testing.T) {
	obs := &panickyObserver{}
	tp := New("panicky", obs, true)
	defer tp.Close()

	frame := normalFrame(4, 4)
	require.NotPanics(t, func() {
		tp.Dispatch(frame, 1, ar.Rotation0)
	})

	// both callbacks were attempted, both faulted, image still released
	assert.Equal(t, uint64(2), obs.calls.Load())
	assert.Equal(t, 1, frame.img.releases)

	// and the tap keeps working afterwards
	tp.Dispatch(normalFrame(4, 4), 1, ar.Rotation0)
	assert.Equal(t, uint64(4), obs.calls.Load())
}

func TestResourceDisciplineAcrossManyDispatches(t *testing.T) {
	obs := &countingObserver{}
	tp := New("discipline", obs, true)
	defer tp.Close()

	const rounds = 10000
	var acquires, releases, successes int
	for i := 0; i < rounds; i++ {
		frame := normalFrame(4, 2)
		switch i % 5 {
		case 1:
			frame.camera.(*fakeCamera).state = ar.TrackingLimited
		case 2:
			frame.camera.(*fakeCamera).loadOK = false
		case 3:
			frame.acquireErr = fmt.Errorf("camera busy")
		case 4:
			frame.img.format = ar.FormatDepth16
		default:
			successes++
		}
		tp.Dispatch(frame, 1, ar.Rotation0)
		acquires += frame.acquires
		releases += frame.img.releases
	}

	// every acquisition was released exactly once, including the
	// unsupported-format path
	assert.Equal(t, acquires, releases)
	assert.Equal(t, uint64(successes), obs.cpus.Load())
	// the latch was cleared every round: nothing was ever dropped
	assert.Equal(t, uint64(0), tp.Dropped())
	assert.Equal(t, uint64(rounds), tp.Frames())
}
