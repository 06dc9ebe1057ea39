package cleanup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// fakeTrasher removes the path unless keep is set, and fails the first
// failFirst calls. onCall runs at the start of every call.
type fakeTrasher struct {
	calls     int
	failFirst int
	keep      bool
	onCall    func()
}

func (f *fakeTrasher) MoveToTrash(path string) error {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.calls <= f.failFirst {
		return errors.New("resource busy")
	}
	if f.keep {
		return nil
	}
	return os.RemoveAll(path)
}

type recordingDeleter struct {
	removed []string
}

func (r *recordingDeleter) Remove(path string) error {
	r.removed = append(r.removed, path)
	return os.Remove(path)
}

func (r *recordingDeleter) RemoveAll(path string) error {
	r.removed = append(r.removed, path)
	return os.RemoveAll(path)
}

func newTestExecutor(t *testing.T, tr *fakeTrasher) (*Executor, *history.Log) {
	t.Helper()
	audit := history.New(afero.NewMemMapFs(), "/audit/deletions.jsonl", zerolog.Nop())
	e := NewExecutor(tr, audit, zerolog.Nop())
	e.VerifyDelay = time.Millisecond
	e.RetryBackoff = time.Millisecond
	return e, audit
}

func createFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDelete_PermanentFreshFile(t *testing.T) {
	e, audit := newTestExecutor(t, &fakeTrasher{})
	path := createFile(t, filepath.Join(t.TempDir(), "fresh.tmp"), 42)

	res := e.Delete([]string{path}, false, false)
	if len(res.Deleted) != 1 || res.Deleted[0] != path {
		t.Fatalf("Deleted = %v, want [%s]", res.Deleted, path)
	}
	if len(res.Skipped) != 0 || len(res.Errors) != 0 {
		t.Errorf("unexpected skipped=%v errors=%v", res.Skipped, res.Errors)
	}
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Error("file should no longer exist")
	}
	if res.BytesFreed != 42 {
		t.Errorf("BytesFreed = %d, want 42", res.BytesFreed)
	}

	records, err := audit.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	r := records[0]
	if r.Method != "permanent" || r.Path != path || r.SizeBytes != 42 || r.Category != CategoryUserSelected {
		t.Errorf("unexpected record %+v", r)
	}
	if r.DeletedAt.IsZero() {
		t.Error("record should carry a timestamp")
	}
}

func TestDelete_MissingPathSkipped(t *testing.T) {
	e, audit := newTestExecutor(t, &fakeTrasher{})
	missing := filepath.Join(t.TempDir(), "never-existed")

	res := e.Delete([]string{missing}, false, true)
	if len(res.Skipped) != 1 || res.Skipped[0] != missing {
		t.Errorf("Skipped = %v, want [%s]", res.Skipped, missing)
	}
	if len(res.Deleted) != 0 || len(res.Errors) != 0 {
		t.Errorf("deleted=%v errors=%v, want both empty", res.Deleted, res.Errors)
	}
	if records, _ := audit.ReadAll(); len(records) != 0 {
		t.Errorf("skipped paths must not be audited, got %d records", len(records))
	}
}

func TestDelete_DryRunTouchesNothing(t *testing.T) {
	tr := &fakeTrasher{}
	e, audit := newTestExecutor(t, tr)
	del := &recordingDeleter{}
	e.Deleter = del

	dir := t.TempDir()
	existing := createFile(t, filepath.Join(dir, "keep.bin"), 10)
	missing := filepath.Join(dir, "missing.bin")

	for _, useTrash := range []bool{true, false} {
		res := e.Delete([]string{existing, missing}, true, useTrash)
		if len(res.Deleted) != 2 {
			t.Errorf("dry run Deleted = %v, want both paths", res.Deleted)
		}
		if !res.DryRun {
			t.Error("result should be marked as dry run")
		}
	}

	if _, err := os.Stat(existing); err != nil {
		t.Errorf("dry run removed the file: %v", err)
	}
	if tr.calls != 0 || len(del.removed) != 0 {
		t.Errorf("dry run called trash %d times and deleter %v", tr.calls, del.removed)
	}
	if records, _ := audit.ReadAll(); len(records) != 0 {
		t.Errorf("dry run wrote %d audit records", len(records))
	}
}

func TestDelete_TrashStillPresentIsError(t *testing.T) {
	e, audit := newTestExecutor(t, &fakeTrasher{keep: true})
	path := createFile(t, filepath.Join(t.TempDir(), "stuck"), 1)

	res := e.Delete([]string{path}, false, true)
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1", res.Errors)
	}
	if !errors.Is(res.Errors[0].Err, ErrDeletionFailed) {
		t.Errorf("error %v should wrap ErrDeletionFailed", res.Errors[0].Err)
	}
	if len(res.Deleted) != 0 {
		t.Errorf("Deleted = %v, want empty", res.Deleted)
	}
	if records, _ := audit.ReadAll(); len(records) != 0 {
		t.Error("unconfirmed deletion must not be audited")
	}
}

func TestDelete_CloudPathRetries(t *testing.T) {
	dir := t.TempDir()
	cloud := createFile(t, filepath.Join(dir, "Library", "Mobile Documents", "com~apple~CloudDocs", "doc.pages"), 3)

	tr := &fakeTrasher{failFirst: 2}
	e, _ := newTestExecutor(t, tr)
	res := e.Delete([]string{cloud}, false, true)
	if len(res.Deleted) != 1 {
		t.Fatalf("cloud path should succeed on third attempt, got %+v", res)
	}
	if tr.calls != 3 {
		t.Errorf("trash calls = %d, want 3", tr.calls)
	}
}

func TestDelete_CloudPathGivesUp(t *testing.T) {
	dir := t.TempDir()
	cloud := createFile(t, filepath.Join(dir, "notes.icloud"), 3)

	tr := &fakeTrasher{failFirst: 10}
	e, _ := newTestExecutor(t, tr)
	res := e.Delete([]string{cloud}, false, true)
	if len(res.Errors) != 1 {
		t.Fatalf("expected error after retries, got %+v", res)
	}
	if tr.calls != DefaultCloudRetries {
		t.Errorf("trash calls = %d, want %d", tr.calls, DefaultCloudRetries)
	}
}

func TestDelete_CloudRetryStopsOnCancel(t *testing.T) {
	cloud := createFile(t, filepath.Join(t.TempDir(), "notes.icloud"), 3)

	tok := cancel.New()
	tr := &fakeTrasher{failFirst: 10, onCall: tok.Cancel}
	e, _ := newTestExecutor(t, tr)
	e.Token = tok
	e.RetryBackoff = time.Hour

	res := e.Delete([]string{cloud}, false, true)
	if tr.calls != 1 {
		t.Errorf("trash calls = %d, want 1 after cancellation", tr.calls)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0].Err, cancel.ErrCancelled) {
		t.Fatalf("expected one ErrCancelled failure, got %+v", res)
	}
	if _, err := os.Stat(cloud); err != nil {
		t.Errorf("file should be untouched: %v", err)
	}
}

func TestDelete_VerifyWaitEndsOnCancel(t *testing.T) {
	path := createFile(t, filepath.Join(t.TempDir(), "slow.txt"), 2)

	tok := cancel.New()
	e, _ := newTestExecutor(t, &fakeTrasher{onCall: tok.Cancel})
	e.Token = tok
	e.VerifyDelay = time.Hour

	done := make(chan Result, 1)
	go func() { done <- e.Delete([]string{path}, false, true) }()

	select {
	case res := <-done:
		if len(res.Deleted) != 1 {
			t.Errorf("removal already happened and should be reported, got %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("verification wait ignored cancellation")
	}
}

func TestDelete_LocalPathNoRetry(t *testing.T) {
	path := createFile(t, filepath.Join(t.TempDir(), "local.txt"), 1)
	tr := &fakeTrasher{failFirst: 1}
	e, _ := newTestExecutor(t, tr)
	res := e.Delete([]string{path}, false, true)
	if len(res.Errors) != 1 || tr.calls != 1 {
		t.Errorf("non-cloud path should not retry: calls=%d result=%+v", tr.calls, res)
	}
}

func TestDelete_PartitionsMixedBatch(t *testing.T) {
	dir := t.TempDir()
	ok1 := createFile(t, filepath.Join(dir, "one"), 1)
	ok2 := createFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), 2)
	missing := filepath.Join(dir, "gone")

	e, audit := newTestExecutor(t, &fakeTrasher{})
	res := e.Delete([]string{ok1, missing, ok2}, false, true)

	if len(res.Deleted)+len(res.Skipped)+len(res.Errors) != 3 {
		t.Fatalf("buckets do not cover input: %+v", res)
	}
	if len(res.Deleted) != 2 || len(res.Skipped) != 1 {
		t.Errorf("unexpected partition: %+v", res)
	}

	records, _ := audit.ReadAll()
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
	if records[1].Category != CategoryDependencyCache || records[1].Method != "trash" {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestDelete_CancelledMarksRemaining(t *testing.T) {
	dir := t.TempDir()
	a := createFile(t, filepath.Join(dir, "a"), 1)
	b := createFile(t, filepath.Join(dir, "b"), 1)

	tok := cancel.New()
	tok.Cancel()
	e, _ := newTestExecutor(t, &fakeTrasher{})
	e.Token = tok

	res := e.Delete([]string{a, b}, false, false)
	if len(res.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", res.Errors)
	}
	for _, f := range res.Errors {
		if !errors.Is(f.Err, cancel.ErrCancelled) {
			t.Errorf("error for %s = %v, want ErrCancelled", f.Path, f.Err)
		}
	}
	if _, err := os.Stat(a); err != nil {
		t.Error("cancelled batch should not touch files")
	}
}

func TestDelete_AuditFailureKeepsDeletion(t *testing.T) {
	path := createFile(t, filepath.Join(t.TempDir(), "x"), 5)
	audit := history.New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/audit/log.jsonl", zerolog.Nop())
	e := NewExecutor(&fakeTrasher{}, audit, zerolog.Nop())
	e.VerifyDelay = 0

	res := e.Delete([]string{path}, false, false)
	if len(res.Deleted) != 1 {
		t.Errorf("audit failure should not demote a confirmed deletion: %+v", res)
	}
}

func TestFailure_MarshalJSON(t *testing.T) {
	data, err := Failure{Path: "/p", Err: ErrDeletionFailed}.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"path":"/p","error":"deletion failed"}` {
		t.Errorf("MarshalJSON = %s", data)
	}
}
