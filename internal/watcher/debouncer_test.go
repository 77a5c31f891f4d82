package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	// When: one event is added
	d.Add(FileEvent{Path: "lines/de.yaml", Operation: OpCreate, Timestamp: time.Now()})

	// Then: it comes out alone after the window
	batch := receive(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "lines/de.yaml", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_BatchesPathsSorted(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "points.yaml", Operation: OpModify})
	d.Add(FileEvent{Path: "lines.yaml", Operation: OpModify})
	d.Add(FileEvent{Path: "orgs.yaml", Operation: OpModify})

	batch := receive(t, d)
	require.Len(t, batch, 3)
	assert.Equal(t, "lines.yaml", batch[0].Path)
	assert.Equal(t, "orgs.yaml", batch[1].Path)
	assert.Equal(t, "points.yaml", batch[2].Path)
}

func TestDebouncer_RepeatedWrites_Coalesce(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	for range 5 {
		d.Add(FileEvent{Path: "lines.yaml", Operation: OpModify})
		time.Sleep(5 * time.Millisecond)
	}

	batch := receive(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_CreateThenDelete_Cancels(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("expected no batch, got %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		prev     Operation
		next     Operation
		want     Operation
		wantKeep bool
	}{
		{"create then modify", OpCreate, OpModify, OpCreate, true},
		{"create then delete", OpCreate, OpDelete, 0, false},
		{"delete then create", OpDelete, OpCreate, OpModify, true},
		{"modify then delete", OpModify, OpDelete, OpDelete, true},
		{"modify then rename", OpModify, OpRename, OpRename, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := merge(FileEvent{Path: "a.yaml", Operation: tt.prev}, FileEvent{Path: "a.yaml", Operation: tt.next})

			assert.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.want, got.Operation)
				assert.Equal(t, "a.yaml", got.Path)
			}
		})
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a.yaml", Operation: OpModify})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.yaml", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok, "output should be closed")
}
