package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(Event{Kind: KindDownloadProgress, ModelID: "a"})
		}()
	}
	wg.Wait()
	r.Emit(Event{Kind: KindDownloadComplete, ModelID: "b"})

	assert.Len(t, r.Events(), 11)
	assert.Equal(t, []Kind{KindDownloadComplete}, r.Kinds("b"))

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	s := NewChannelSink(1)
	s.Emit(Event{ModelID: "first"})
	s.Emit(Event{ModelID: "second"})

	assert.Equal(t, "first", (<-s.C).ModelID)
	assert.Empty(t, s.C)
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi(a, nil, b).Emit(Event{Kind: KindExtractionStarted, ModelID: "x"})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestSinkFunc(t *testing.T) {
	var got Event
	SinkFunc(func(e Event) { got = e }).Emit(Event{Kind: KindExtractionFailed, Error: "boom"})
	assert.Equal(t, "boom", got.Error)
	Discard.Emit(Event{})
}

func TestEvent_ProgressJSONKeepsCounters(t *testing.T) {
	data, err := json.Marshal(Event{Kind: KindDownloadProgress, ModelID: "m1"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "m1", got["model_id"])
	for _, key := range []string{"downloaded", "total", "percentage"} {
		v, ok := got[key]
		require.True(t, ok, "missing %q in %s", key, data)
		assert.Equal(t, float64(0), v)
	}
	assert.NotContains(t, got, "error")
}
