package qtable

import (
	"errors"
	"testing"
)

func TestGetMaterializesZeroVector(t *testing.T) {
	table, err := New[string](3)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	if _, ok := table.Peek("s0"); ok {
		t.Fatal("expected unseen state before lookup")
	}
	values := table.Get("s0")
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	for i, v := range values {
		if v != 0 {
			t.Fatalf("expected zero at %d, got %f", i, v)
		}
	}
	if table.Len() != 1 {
		t.Fatalf("expected lookup to materialize the entry, len=%d", table.Len())
	}
	if _, ok := table.Peek("s0"); !ok {
		t.Fatal("expected materialized entry after lookup")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	table, _ := New[int](2)
	values := table.Get(7)
	values[0] = 42

	if got := table.Get(7)[0]; got != 0 {
		t.Fatalf("expected table to be unaffected by caller mutation, got %f", got)
	}
}

func TestSetAndValue(t *testing.T) {
	table, _ := New[int](2)
	if err := table.Set(1, 1, 2.5); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := table.Value(1, 1)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if got != 2.5 {
		t.Fatalf("expected 2.5, got %f", got)
	}
}

func TestInvalidActionRejected(t *testing.T) {
	table, _ := New[int](2)
	for _, action := range []int{-1, 2, 10} {
		err := table.Set(0, action, 1)
		if !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("action %d: expected ErrInvalidAction, got %v", action, err)
		}
		var invalid *InvalidActionError
		if !errors.As(err, &invalid) || invalid.Action != action || invalid.ActionCount != 2 {
			t.Fatalf("action %d: unexpected error detail %+v", action, invalid)
		}
	}
	if table.Len() != 0 {
		t.Fatalf("expected rejected writes to leave the table empty, len=%d", table.Len())
	}
}

func TestNewRejectsNonPositiveActionCount(t *testing.T) {
	if _, err := New[int](0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestArgmaxTieBreaksLowestIndex(t *testing.T) {
	table, _ := New[int](4)
	_ = table.Set(0, 1, 5)
	_ = table.Set(0, 3, 5)

	if got := table.Argmax(0); got != 1 {
		t.Fatalf("expected lowest tied index 1, got %d", got)
	}
	if got := table.Max(0); got != 5 {
		t.Fatalf("expected max 5, got %f", got)
	}
	if got := table.Argmax(9); got != 0 {
		t.Fatalf("expected action 0 for all-zero entry, got %d", got)
	}
}

func TestBestActionDoesNotMaterialize(t *testing.T) {
	table, _ := New[int](3)
	_ = table.Set(1, 2, 1)

	if got := table.BestAction(1); got != 2 {
		t.Fatalf("expected action 2, got %d", got)
	}
	if got := table.BestAction(5); got != 0 {
		t.Fatalf("expected action 0 for unseen state, got %d", got)
	}
	if table.Len() != 1 {
		t.Fatalf("expected unseen state to stay absent, len=%d", table.Len())
	}
}
