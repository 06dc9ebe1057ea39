package cleanup

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lu-zhengda/reclaim/internal/safety"
	"github.com/rs/zerolog"
)

func newTestService(t *testing.T) (*Service, *fakeTrasher) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX blocked list")
	}
	tr := &fakeTrasher{}
	e, _ := newTestExecutor(t, tr)
	pv := safety.NewPathValidator(safety.RulesFor("linux", ""), zerolog.Nop())
	return NewService(safety.NewDeletionValidator(pv), e), tr
}

func TestService_BlockedPathDeletesNothing(t *testing.T) {
	svc, tr := newTestService(t)
	safe := createFile(t, filepath.Join(t.TempDir(), "safe.txt"), 1)

	_, err := svc.Run(Request{Paths: []string{safe, "/System/Library/test.txt"}, UseTrash: true})
	if !errors.Is(err, safety.ErrBlockedSystemDirectory) {
		t.Fatalf("Run() error = %v, want ErrBlockedSystemDirectory", err)
	}
	if tr.calls != 0 {
		t.Errorf("trash called %d times after a rejected batch", tr.calls)
	}
	if _, err := os.Stat(safe); err != nil {
		t.Error("no path in a rejected batch may be deleted")
	}
}

func TestService_TooManyFiles(t *testing.T) {
	svc, _ := newTestService(t)
	paths := make([]string, safety.MaxBatchDeleteCount+1)
	for i := range paths {
		paths[i] = "/tmp/x"
	}
	if _, err := svc.Run(Request{Paths: paths, UseTrash: true}); !errors.Is(err, safety.ErrTooManyFiles) {
		t.Errorf("Run() error = %v, want ErrTooManyFiles", err)
	}
}

func TestService_ValidBatch(t *testing.T) {
	svc, _ := newTestService(t)
	path := createFile(t, filepath.Join(t.TempDir(), "ok.txt"), 4)

	res, err := svc.Run(Request{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Deleted) != 1 {
		t.Errorf("Deleted = %v", res.Deleted)
	}
}
