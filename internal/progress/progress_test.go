package progress

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTracker_Counters(t *testing.T) {
	tr := NewTracker()
	tr.IncrementFiles(3)
	tr.IncrementDirs(2)
	tr.AddBytes(1024)

	snap := tr.Snapshot("/data/a.txt", PhaseWalking, nil)
	if snap.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d, want 3", snap.FilesScanned)
	}
	if snap.DirsScanned != 2 {
		t.Errorf("DirsScanned = %d, want 2", snap.DirsScanned)
	}
	if snap.BytesProcessed != 1024 {
		t.Errorf("BytesProcessed = %d, want 1024", snap.BytesProcessed)
	}
	if snap.CurrentPath != "/data/a.txt" {
		t.Errorf("CurrentPath = %q", snap.CurrentPath)
	}
	if snap.Phase != PhaseWalking {
		t.Errorf("Phase = %q, want %q", snap.Phase, PhaseWalking)
	}
}

func TestTracker_PercentageWithEstimate(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTrackerWithClock(clock.now)
	tr.SetTotalEstimate(1000)
	tr.AddBytes(250)
	clock.t = clock.t.Add(10 * time.Second)

	snap := tr.Snapshot("", PhaseWalking, nil)
	if snap.Percentage != 25 {
		t.Fatalf("Percentage = %v, want 25", snap.Percentage)
	}
	if snap.ETASeconds == nil {
		t.Fatal("expected an ETA between 0 and 100 percent")
	}
	// 10s for 25% -> 30s for the remaining 75%.
	if math.Abs(*snap.ETASeconds-30) > 1e-9 {
		t.Errorf("ETASeconds = %v, want 30", *snap.ETASeconds)
	}
}

func TestTracker_PercentageFallback(t *testing.T) {
	tr := NewTracker()
	tr.IncrementFiles(4000)
	tr.IncrementDirs(1000)

	snap := tr.Snapshot("", PhaseWalking, nil)
	if snap.Percentage != 5 {
		t.Errorf("Percentage = %v, want 5", snap.Percentage)
	}
}

func TestTracker_PercentageCapped(t *testing.T) {
	tr := NewTracker()
	tr.SetTotalEstimate(100)
	tr.AddBytes(500)

	snap := tr.Snapshot("", PhaseWalking, nil)
	if snap.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", snap.Percentage)
	}
	if snap.ETASeconds != nil {
		t.Errorf("ETA should be absent at 100%%, got %v", *snap.ETASeconds)
	}

	fallback := NewTracker()
	fallback.IncrementFiles(1_000_000)
	if got := fallback.Snapshot("", PhaseWalking, nil).Percentage; got != 100 {
		t.Errorf("fallback Percentage = %v, want 100", got)
	}
}

func TestTracker_NoETAAtZero(t *testing.T) {
	tr := NewTracker()
	snap := tr.Snapshot("", PhaseWalking, nil)
	if snap.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", snap.Percentage)
	}
	if snap.ETASeconds != nil {
		t.Error("ETA should be absent at 0%")
	}
}

func TestTracker_CompletePhase(t *testing.T) {
	tr := NewTracker()
	tr.IncrementFiles(1)
	snap := tr.Snapshot("", PhaseComplete, nil)
	if snap.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100 when complete", snap.Percentage)
	}
}

func TestTracker_SnapshotCopiesWarnings(t *testing.T) {
	tr := NewTracker()
	warnings := []string{"first"}
	snap := tr.Snapshot("", PhaseWalking, warnings)
	warnings[0] = "mutated"

	if snap.Warnings[0] != "first" {
		t.Errorf("snapshot warnings changed after emission: %v", snap.Warnings)
	}
}

func TestTracker_ConcurrentIncrements(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tr.IncrementFiles(1)
				tr.AddBytes(2)
			}
		}()
	}
	wg.Wait()

	if tr.Files() != 8000 {
		t.Errorf("Files() = %d, want 8000", tr.Files())
	}
	if tr.Bytes() != 16000 {
		t.Errorf("Bytes() = %d, want 16000", tr.Bytes())
	}
}
