package qtable

import (
	"testing"

	"qlearn/internal/model"
)

type cell struct {
	Row int
	Col int
}

func TestSnapshotRestoreStructKeys(t *testing.T) {
	table, _ := New[cell](4)
	_ = table.Set(cell{Row: 0, Col: 1}, 2, 0.75)
	_ = table.Set(cell{Row: 3, Col: 3}, 0, -1.5)
	table.Get(cell{Row: 2, Col: 2})

	snapshot, err := table.Snapshot(JSONCodec[cell]{}, []int{4, 4})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.ActionCount != 4 || len(snapshot.Entries) != 3 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	for i := 1; i < len(snapshot.Entries); i++ {
		if snapshot.Entries[i-1].State >= snapshot.Entries[i].State {
			t.Fatalf("expected sorted entries, got %+v", snapshot.Entries)
		}
	}

	restored, err := Restore[cell](snapshot, JSONCodec[cell]{})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Len() != 3 {
		t.Fatalf("expected 3 restored states, got %d", restored.Len())
	}
	if got, _ := restored.Value(cell{Row: 0, Col: 1}, 2); got != 0.75 {
		t.Fatalf("expected 0.75, got %f", got)
	}
	if got, _ := restored.Value(cell{Row: 3, Col: 3}, 0); got != -1.5 {
		t.Fatalf("expected -1.5, got %f", got)
	}
	for _, v := range restored.Get(cell{Row: 1, Col: 1}) {
		if v != 0 {
			t.Fatalf("expected zero default for unseen state, got %f", v)
		}
	}
}

func TestRestoreRejectsWrongWidth(t *testing.T) {
	table, _ := New[int](2)
	_ = table.Set(0, 0, 1)
	snapshot, err := table.Snapshot(IntCodec{}, []int{2})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snapshot.Entries[0].Values = []float64{1}

	if _, err := Restore[int](snapshot, IntCodec{}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestRestoreRejectsUndecodableKey(t *testing.T) {
	table, _ := New[int](2)
	snapshot, _ := table.Snapshot(IntCodec{}, []int{2})
	snapshot.Entries = append(snapshot.Entries, entryFor("not-a-number", 2))

	if _, err := Restore[int](snapshot, IntCodec{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func entryFor(key string, width int) model.QEntry {
	return model.QEntry{State: key, Values: make([]float64, width)}
}
