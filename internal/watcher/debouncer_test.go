package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []Event {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatalf("no batch within %v", timeout)
		return nil
	}
}

func TestDebouncer_SingleEventFlushesAfterWindow(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	start := time.Now()
	d.Add(Event{Path: "a.md", Op: OpModify, Timestamp: start})

	batch := receiveBatch(t, d, time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, "a.md", batch[0].Path)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDebouncer_WindowIsFixedNotSliding(t *testing.T) {
	// Events keep arriving faster than the window. A sliding debounce
	// would reset its timer each time and never flush during the burst;
	// a fixed window flushes once the first event's window expires.
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Add(Event{Path: "busy.md", Op: OpModify, Timestamp: time.Now()})
			}
		}
	}()
	defer close(stop)

	d.Add(Event{Path: "busy.md", Op: OpModify, Timestamp: time.Now()})
	batch := receiveBatch(t, d, 400*time.Millisecond)
	assert.Len(t, batch, 1)
}

func TestDebouncer_BurstCoalescesIntoOneBatch(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "a.md", Op: OpModify})
	d.Add(Event{Path: "b.md", Op: OpCreate})
	d.Add(Event{Path: "a.md", Op: OpModify})

	batch := receiveBatch(t, d, time.Second)
	assert.Len(t, batch, 2)
}

func TestDebouncer_CreateThenDeleteCancelsOut(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "ghost.md", Op: OpCreate})
	d.Add(Event{Path: "ghost.md", Op: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("expected no batch, got %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_DeleteThenCreateBecomesModify(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "a.md", Op: OpDelete})
	d.Add(Event{Path: "a.md", Op: OpCreate})

	batch := receiveBatch(t, d, time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Op)
}

func TestDebouncer_SecondWindowAfterFlush(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "a.md", Op: OpModify})
	first := receiveBatch(t, d, time.Second)
	require.Len(t, first, 1)

	d.Add(Event{Path: "b.md", Op: OpModify})
	second := receiveBatch(t, d, time.Second)
	require.Len(t, second, 1)
	assert.Equal(t, "b.md", second[0].Path)
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Stop()
	d.Stop()
	d.Add(Event{Path: "a.md", Op: OpModify})
}
