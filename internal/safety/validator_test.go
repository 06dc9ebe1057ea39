package safety

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func posixValidator(t *testing.T) *PathValidator {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX blocked list")
	}
	return NewPathValidator(RulesFor("linux", ""), zerolog.Nop())
}

func TestCheckBlocked_POSIX(t *testing.T) {
	v := posixValidator(t)

	tests := []struct {
		path    string
		blocked bool
	}{
		{"/usr", true},
		{"/usr/local/bin", true},
		{"/usrdata/files", false},
		{"/System/Library", true},
		{"/private/var/db", true},
		{"/private/var/folders/xy/T/tmp123", false},
		{"/var/folders/xy/T", false},
		{"/Library/LaunchDaemons/com.example.plist", true},
		{"/Library/Caches", false},
		{"/home/user/projects", false},
		{"/tmp/scratch", false},
		{"/proc/self", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := v.CheckBlocked(tt.path)
			if tt.blocked && !errors.Is(err, ErrBlockedSystemDirectory) {
				t.Errorf("CheckBlocked(%q) = %v, want ErrBlockedSystemDirectory", tt.path, err)
			}
			if !tt.blocked && err != nil {
				t.Errorf("CheckBlocked(%q) = %v, want nil", tt.path, err)
			}
		})
	}
}

func TestCheckBlocked_WindowsCaseInsensitive(t *testing.T) {
	v := NewPathValidator(RulesFor("windows", ""), zerolog.Nop())

	tests := []struct {
		path    string
		blocked bool
	}{
		{`C:\Windows\System32`, true},
		{`c:\windows`, true},
		{`C:\PROGRAM FILES\App`, true},
		{`C:\Program Files (x86)\Tool`, true},
		{`C:\ProgramData\Microsoft\Crypto`, true},
		{`C:\ProgramData\Other`, false},
		{`C:\WindowsApps`, false},
		{`D:\Windows`, false},
		{`C:\Users\me\Downloads`, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := v.CheckBlocked(tt.path)
			if tt.blocked != (err != nil) {
				t.Errorf("CheckBlocked(%q) = %v, blocked want %v", tt.path, err, tt.blocked)
			}
		})
	}
}

func TestCheckBlocked_MessageNamesPrefix(t *testing.T) {
	v := posixValidator(t)
	err := v.CheckBlocked("/etc/hosts")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "/etc/hosts") || !strings.Contains(err.Error(), "prefix /etc") {
		t.Errorf("error %q should name the path and the offending prefix", err)
	}
}

func TestValidate_ReturnsCanonicalPath(t *testing.T) {
	v := posixValidator(t)
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := v.Validate(link)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want, _ := filepath.EvalSymlinks(real)
	if got != want {
		t.Errorf("Validate(link) = %q, want %q", got, want)
	}
}

func TestValidate_NotFound(t *testing.T) {
	v := posixValidator(t)
	_, err := v.Validate(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Validate(missing) = %v, want ErrNotFound", err)
	}
}

func TestValidate_Blocked(t *testing.T) {
	v := posixValidator(t)
	if _, err := os.Stat("/usr"); err != nil {
		t.Skip("/usr not present")
	}
	_, err := v.Validate("/usr")
	if !errors.Is(err, ErrBlockedSystemDirectory) {
		t.Errorf("Validate(/usr) = %v, want ErrBlockedSystemDirectory", err)
	}
}

func TestValidate_SymlinkIntoBlockedDir(t *testing.T) {
	v := posixValidator(t)
	if _, err := os.Stat("/etc"); err != nil {
		t.Skip("/etc not present")
	}
	link := filepath.Join(t.TempDir(), "sneaky")
	if err := os.Symlink("/etc", link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_, err := v.Validate(link)
	if !errors.Is(err, ErrBlockedSystemDirectory) {
		t.Errorf("Validate(link to /etc) = %v, want ErrBlockedSystemDirectory", err)
	}
}

func TestValidateForDeletion_ParentBlockedEvenIfMissing(t *testing.T) {
	v := posixValidator(t)
	err := v.ValidateForDeletion("/System/Library/test.txt")
	if !errors.Is(err, ErrBlockedSystemDirectory) {
		t.Fatalf("ValidateForDeletion = %v, want ErrBlockedSystemDirectory", err)
	}
	if !strings.Contains(err.Error(), "System/Library") {
		t.Errorf("error %q should mention System/Library", err)
	}
}

func TestValidateForDeletion_TargetItselfBlocked(t *testing.T) {
	v := posixValidator(t)
	err := v.ValidateForDeletion("/usr")
	if !errors.Is(err, ErrBlockedSystemDirectory) {
		t.Errorf("ValidateForDeletion(/usr) = %v, want ErrBlockedSystemDirectory", err)
	}
}

func TestValidateForDeletion_MissingParentAllowed(t *testing.T) {
	v := posixValidator(t)
	target := filepath.Join(t.TempDir(), "gone", "file.txt")
	if err := v.ValidateForDeletion(target); err != nil {
		t.Errorf("ValidateForDeletion(missing parent) = %v, want nil", err)
	}
}

func TestValidateForDeletion_SymlinkedParentIntoBlocked(t *testing.T) {
	v := posixValidator(t)
	if _, err := os.Stat("/etc"); err != nil {
		t.Skip("/etc not present")
	}
	link := filepath.Join(t.TempDir(), "etc-link")
	if err := os.Symlink("/etc", link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	err := v.ValidateForDeletion(filepath.Join(link, "hosts"))
	if !errors.Is(err, ErrBlockedSystemDirectory) {
		t.Errorf("ValidateForDeletion through symlink = %v, want ErrBlockedSystemDirectory", err)
	}
}

func TestAdvisory(t *testing.T) {
	home := "/home/tester"
	v := NewPathValidator(RulesFor("linux", home), zerolog.Nop())

	if loc, ok := v.Advisory("/home/tester/.ssh/id_ed25519"); !ok || loc != filepath.Join(home, ".ssh") {
		t.Errorf("Advisory(.ssh key) = %q, %v", loc, ok)
	}
	if _, ok := v.Advisory("/home/tester/Downloads/big.iso"); ok {
		t.Error("Downloads should not be advisory")
	}
	if err := v.CheckBlocked("/home/tester/.ssh"); err != nil {
		t.Errorf("advisory locations must not block: %v", err)
	}
}
