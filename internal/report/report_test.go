package report

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/runcmd/internal/runner"
)

func newRecord(t *testing.T) *Record {
	t.Helper()
	return &Record{
		ID:         uuid.New().String(),
		Command:    "echo hi",
		Argv:       []string{"echo", "hi"},
		PID:        1234,
		ExecOK:     true,
		Exited:     true,
		ExitStatus: 0,
	}
}

// countingStore records how often the backing store is hit.
type countingStore struct {
	records map[string]*Record
	loads   int
}

func (s *countingStore) Save(r *Record) error {
	if s.records == nil {
		s.records = make(map[string]*Record)
	}
	s.records[r.ID] = r
	return nil
}

func (s *countingStore) Load(id string) (*Record, error) {
	s.loads++
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func TestFromResult_Exited(t *testing.T) {
	res := &runner.Result{
		RunID:     uuid.New().String(),
		Command:   "sh script",
		Argv:      []string{"sh", "script"},
		PID:       42,
		Status:    runner.ExecOK | runner.NormTerm | 3,
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
	}
	rec := FromResult(res)
	if !rec.ExecOK || !rec.Exited {
		t.Errorf("ExecOK/Exited = %v/%v, want true/true", rec.ExecOK, rec.Exited)
	}
	if rec.ExitStatus != 3 {
		t.Errorf("ExitStatus = %d, want 3", rec.ExitStatus)
	}
	if rec.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", rec.DurationMS)
	}
	if got := rec.Outcome(); got != "exited 3" {
		t.Errorf("Outcome = %q, want %q", got, "exited 3")
	}
}

func TestFromResult_ExecFailed(t *testing.T) {
	res := &runner.Result{
		RunID:     uuid.New().String(),
		Argv:      []string{"missing"},
		Status:    runner.NormTerm | runner.ExecFailStatus,
		ExecErrno: syscall.ENOENT,
	}
	rec := FromResult(res)
	if rec.ExecOK {
		t.Error("ExecOK = true, want false")
	}
	if rec.ExitStatus != runner.ExecFailStatus {
		t.Errorf("ExitStatus = %d, want %d", rec.ExitStatus, runner.ExecFailStatus)
	}
	if !strings.HasPrefix(rec.Outcome(), "exec failed: ") {
		t.Errorf("Outcome = %q, want exec failed with errno text", rec.Outcome())
	}
}

func TestFromResult_Signaled(t *testing.T) {
	rec := FromResult(&runner.Result{
		RunID:  uuid.New().String(),
		Argv:   []string{"sleep", "10"},
		Status: runner.ExecOK,
		Signal: "SIGKILL",
	})
	if rec.ExitStatus != -1 {
		t.Errorf("ExitStatus = %d, want -1", rec.ExitStatus)
	}
	if got := rec.Outcome(); got != "killed by SIGKILL" {
		t.Errorf("Outcome = %q, want %q", got, "killed by SIGKILL")
	}
}

func TestRecord_Summary(t *testing.T) {
	rec := newRecord(t)
	rec.Stdout = "line one\nline two\n"
	rec.OutputTruncated = true
	text := rec.Summary()
	for _, want := range []string{"Run: " + rec.ID, "Command: echo hi", "PID: 1234", "exited 0", "    line two", "(output truncated)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Stderr:") {
		t.Errorf("Summary has empty Stderr section:\n%s", text)
	}
}

func TestDiskStore_SaveLoad(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	rec := newRecord(t)
	rec.Stderr = "warning"
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(rec.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Command != rec.Command || got.PID != rec.PID || got.Stderr != "warning" {
		t.Errorf("Load = %+v, want %+v", got, rec)
	}
}

func TestDiskStore_LazyTempDir(t *testing.T) {
	s := NewDiskStore("")
	dir, err := s.Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	again, _ := s.Dir()
	if again != dir {
		t.Errorf("Dir = %q on second call, want %q", again, dir)
	}
}

func TestDiskStore_InvalidRunID(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	if _, err := s.Load("../../etc/passwd"); err == nil {
		t.Fatal("expected error for non-UUID run id")
	}
}

func TestDiskStore_Missing(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	if _, err := s.Load(uuid.New().String()); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestLRUStore_HitsCache(t *testing.T) {
	back := &countingStore{}
	s := NewLRUStore(2, back)
	rec := newRecord(t)
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(rec.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != rec {
		t.Error("Load returned a different record")
	}
	if back.loads != 0 {
		t.Errorf("backing loads = %d, want 0", back.loads)
	}
}

func TestLRUStore_EvictsOldest(t *testing.T) {
	back := &countingStore{}
	s := NewLRUStore(2, back)
	a, b, c := newRecord(t), newRecord(t), newRecord(t)
	for _, r := range []*Record{a, b, c} {
		if err := s.Save(r); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	// a was evicted and must come from the backing store.
	if _, err := s.Load(a.ID); err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	if back.loads != 1 {
		t.Errorf("backing loads = %d, want 1", back.loads)
	}
	// a is now cached again and b is the oldest.
	if _, err := s.Load(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(b.ID); err != nil {
		t.Fatal(err)
	}
	if back.loads != 2 {
		t.Errorf("backing loads = %d, want 2", back.loads)
	}
}

func TestLRUStore_WithDiskStore(t *testing.T) {
	s := NewLRUStore(1, NewDiskStore(t.TempDir()))
	first, second := newRecord(t), newRecord(t)
	if err := s.Save(first); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(second); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(first.ID)
	if err != nil {
		t.Fatalf("Load evicted record: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("ID = %q, want %q", got.ID, first.ID)
	}
}

func TestLRUStore_MissingPropagatesError(t *testing.T) {
	s := NewLRUStore(1, &countingStore{})
	if _, err := s.Load("nope"); err == nil {
		t.Fatal("expected error")
	}
}
