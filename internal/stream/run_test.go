package stream

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	"github.com/casualjim/scriptbridge/internal/session"
	"github.com/casualjim/scriptbridge/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, script string) *session.Session {
	t.Helper()
	s, err := session.New(t.Name(), script, entity.Entity{})
	require.NoError(t, err)
	return s
}

func strs(items []*native.Object) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.String())
	}
	return out
}

func TestRunLogsErrorsAndWarnings(t *testing.T) {
	before := ActiveRuns()
	rec := events.NewRecorder()
	s := newSession(t, `output('one'); writeError('error'); output('two'); writeWarning('warning')`)

	items, err := Start(context.Background(), s, Config{Logger: rec}).Collect()
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, strs(items))
	assert.Equal(t, 2, rec.Len())
	assert.Contains(t, rec.Texts(), "error")
	assert.Contains(t, rec.Texts(), "warning")
	assert.True(t, s.Disposed())
	assert.Equal(t, before, ActiveRuns())
}

func TestRunRemovesDeliveredRecords(t *testing.T) {
	s := newSession(t, `output(1); writeError('e'); writeWarning('w'); console.log('i')`)
	r := Start(context.Background(), s, Config{Logger: events.NewRecorder()})
	_, err := r.Collect()
	require.NoError(t, err)

	assert.Equal(t, 0, s.Output.Len())
	assert.Equal(t, 0, s.Error.Len())
	assert.Equal(t, 0, s.Warning.Len())
	assert.Equal(t, 0, s.Information.Len())
}

func TestRunStreamingMatchesBatch(t *testing.T) {
	script := `for (let i = 1; i <= 100; i++) { output(i) }`

	batch, err := Start(context.Background(), newSession(t, script), Config{QueueSize: 4}).Collect()
	require.NoError(t, err)

	var streamed []*native.Object
	for item := range Start(context.Background(), newSession(t, script), Config{QueueSize: 4}).All() {
		streamed = append(streamed, item)
	}

	require.Len(t, batch, 100)
	assert.Equal(t, strs(batch), strs(streamed))
}

func TestRunAllIsSinglePass(t *testing.T) {
	r := Start(context.Background(), newSession(t, `output(1, 2)`), Config{})
	var first, second int
	for range r.All() {
		first++
	}
	for range r.All() {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)
	assert.NoError(t, r.Close())
}

func TestRunEarlyStopReleasesResources(t *testing.T) {
	before := ActiveRuns()
	s := newSession(t, `let i = 0; while (true) { output(i++) }`)
	r := Start(context.Background(), s, Config{QueueSize: 2})

	n := 0
	for range r.All() {
		n++
		if n == 5 {
			break
		}
	}

	assert.Equal(t, 5, n)
	assert.NoError(t, r.Err())
	assert.True(t, s.Disposed())
	assert.Equal(t, before, ActiveRuns())
}

func TestRunCancelledMidStream(t *testing.T) {
	before := ActiveRuns()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSession(t, `let i = 0; while (true) { output(i++) }`)
	r := Start(ctx, s, Config{QueueSize: 2})

	const pulled = 3
	n := 0
	for range r.All() {
		n++
		if n == pulled {
			cancel()
		}
	}

	// items already queued when cancel took effect are still delivered
	assert.LessOrEqual(t, n, pulled+3)
	assert.ErrorIs(t, r.Err(), context.Canceled)
	assert.True(t, s.Disposed())
	assert.Equal(t, before, ActiveRuns())
}

func TestRunCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	items, err := Start(ctx, newSession(t, `output('first'); while (true) {}`), Config{}).Collect()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"first"}, strs(items))
}

func TestRunFeedsInput(t *testing.T) {
	input := func(yield func(entity.Entity) bool) {
		for i := 1; i <= 3; i++ {
			if !yield(entity.Create("n", i)) {
				return
			}
		}
	}

	items, err := Start(context.Background(),
		newSession(t, `for (const r of $input) { output(r.n) }`),
		Config{Input: input},
	).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, strs(items))
}

func TestRunStopsFeedingWhenScriptIgnoresInput(t *testing.T) {
	var endless iter.Seq[entity.Entity] = func(yield func(entity.Entity) bool) {
		for {
			if !yield(entity.Create("x", 1)) {
				return
			}
		}
	}

	items, err := Start(context.Background(), newSession(t, `output('done')`), Config{Input: endless}).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, strs(items))
}

func TestRunWarningsOnly(t *testing.T) {
	rec := events.NewRecorder()
	items, err := Start(context.Background(), newSession(t, `writeWarning('careful')`), Config{Logger: rec}).Collect()
	require.NoError(t, err)
	assert.Empty(t, items)

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.SeverityWarning, evs[0].Severity)
	assert.Equal(t, "careful", evs[0].Text)
}

func TestRunUncaughtExceptionEndsRunNormally(t *testing.T) {
	rec := events.NewRecorder()
	items, err := Start(context.Background(), newSession(t, `output(1); throw new Error('bad')`), Config{Logger: rec}).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, strs(items))
	assert.Equal(t, []string{"bad"}, rec.Texts())
}

func TestActiveRunIDs(t *testing.T) {
	block := make(chan struct{})
	input := func(yield func(entity.Entity) bool) {
		<-block
	}
	r := Start(context.Background(), newSession(t, `output(1)`), Config{Input: input})
	assert.Contains(t, ActiveRunIDs(), r.ID)

	close(block)
	_, err := r.Collect()
	require.NoError(t, err)
	assert.NotContains(t, ActiveRunIDs(), r.ID)
}
