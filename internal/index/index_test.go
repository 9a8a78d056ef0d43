package index

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func TestPutGetRemove(t *testing.T) {
	x := openTestIndex(t)

	now := time.Now().UTC().Truncate(time.Second)
	if err := x.Put(Summary{ID: "INC-ab12", Created: now, Updated: now}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	s, err := x.Get("INC-ab12")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s == nil || s.ID != "INC-ab12" || !s.Created.Equal(now) {
		t.Errorf("unexpected summary: %+v", s)
	}

	if s, err := x.Get("INC-0000"); err != nil || s != nil {
		t.Errorf("expected nil for unknown id, got %+v, %v", s, err)
	}

	if err := x.Remove("INC-ab12"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if s, _ := x.Get("INC-ab12"); s != nil {
		t.Error("summary should be gone after Remove")
	}

	// Removing an absent row is fine.
	if err := x.Remove("INC-ab12"); err != nil {
		t.Errorf("second Remove failed: %v", err)
	}
}

func TestTouchUpdatesTimestamp(t *testing.T) {
	x := openTestIndex(t)

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	if err := x.Put(Summary{ID: "INC-beef", Created: created, Updated: created}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	later := created.Add(30 * time.Minute)
	if err := x.Touch("INC-beef", later); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	s, err := x.Get("INC-beef")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !s.Created.Equal(created) {
		t.Errorf("Touch must not change Created: got %v", s.Created)
	}
	if !s.Updated.Equal(later) {
		t.Errorf("Touch must advance Updated: got %v", s.Updated)
	}

	// Touch on an unknown id creates the row.
	if err := x.Touch("INC-f00d", later); err != nil {
		t.Fatalf("Touch on new id failed: %v", err)
	}
	if s, _ := x.Get("INC-f00d"); s == nil {
		t.Error("Touch should create missing rows")
	}
}

func TestAllReturnsEverySummary(t *testing.T) {
	x := openTestIndex(t)

	now := time.Now().UTC()
	for _, id := range []string{"INC-0001", "INC-0002", "INC-0003"} {
		if err := x.Put(Summary{ID: id, Created: now, Updated: now}); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}

	all, err := x.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(all))
	}
	for i, id := range []string{"INC-0001", "INC-0002", "INC-0003"} {
		if all[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, all[i].ID, id)
		}
	}
}
