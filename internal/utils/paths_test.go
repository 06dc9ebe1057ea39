package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHomeDir(t *testing.T) {
	home := HomeDir()
	if home == "" {
		t.Error("HomeDir should not return empty string")
	}
	expected, _ := os.UserHomeDir()
	if home != expected {
		t.Errorf("HomeDir = %q, want %q", home, expected)
	}
}

func TestDataDir(t *testing.T) {
	want := filepath.Join(HomeDir(), ".local", "share", "reclaim")
	if got := DataDir(); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
}

func TestExpandPaths(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"tilde prefix", []string{"~/Documents"}, []string{filepath.Join(home, "Documents")}},
		{"tilde alone", []string{"~"}, []string{home}},
		{"absolute unchanged", []string{"/usr/local/bin"}, []string{"/usr/local/bin"}},
		{"mixed", []string{"~/foo", "/bar", "~"}, []string{filepath.Join(home, "foo"), "/bar", home}},
		{"empty", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandPaths(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ExpandPaths(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExpandPaths[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !DirExists(dir) {
		t.Error("DirExists should return true for existing dir")
	}
	if DirExists(filepath.Join(dir, "nope")) {
		t.Error("DirExists should return false for non-existent dir")
	}
	f := filepath.Join(dir, "file.txt")
	os.WriteFile(f, []byte("hi"), 0o644)
	if DirExists(f) {
		t.Error("DirExists should return false for a file")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file.txt")
	os.WriteFile(f, []byte("hi"), 0o644)

	if !FileExists(f) {
		t.Error("FileExists should return true for existing file")
	}
	if FileExists(dir) {
		t.Error("FileExists should return false for a directory")
	}
	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists should return false for non-existent path")
	}
}

func TestExists_DanglingSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling")
	if err := os.Symlink(filepath.Join(dir, "missing"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if !Exists(link) {
		t.Error("Exists should report a dangling symlink as present")
	}
	if FileExists(link) {
		t.Error("FileExists follows links and should report false")
	}
}
