package safety

import (
	"path/filepath"
	"runtime"
)

// POSIXBlocked lists directories that must never be scanned for deletion
// or have anything removed from them on macOS and Linux.
var POSIXBlocked = []string{
	"/System",
	"/bin",
	"/sbin",
	"/usr",
	"/etc",
	"/var",
	"/private/var",
	"/private/etc",
	"/dev",
	"/proc",
	"/sys",
	"/Library/LaunchAgents",
	"/Library/LaunchDaemons",
}

// POSIXExempt carves the per-user temporary area out of /var on macOS.
var POSIXExempt = []string{
	"/private/var/folders",
	"/var/folders",
}

// WindowsBlocked is matched case-insensitively.
var WindowsBlocked = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData\Microsoft`,
}

// advisorySubpaths are home-relative locations that hold credentials or
// keys. Touching them is allowed but logged.
var advisorySubpaths = []string{
	".ssh",
	".gnupg",
	".aws",
	".kube",
	filepath.Join("Library", "Keychains"),
	filepath.Join("Library", "LaunchAgents"),
}

// Rules is the compiled-in configuration a PathValidator checks against.
type Rules struct {
	Blocked         []string
	Exempt          []string
	Advisory        []string
	CaseInsensitive bool
}

// DefaultRules returns the rules for the running platform. home may be
// empty, in which case no advisory paths are produced.
func DefaultRules(home string) Rules {
	return RulesFor(runtime.GOOS, home)
}

// RulesFor returns the rules for goos.
func RulesFor(goos, home string) Rules {
	var advisory []string
	if home != "" {
		for _, sub := range advisorySubpaths {
			advisory = append(advisory, filepath.Join(home, sub))
		}
	}

	if goos == "windows" {
		return Rules{
			Blocked:         WindowsBlocked,
			Advisory:        advisory,
			CaseInsensitive: true,
		}
	}
	return Rules{
		Blocked:  POSIXBlocked,
		Exempt:   POSIXExempt,
		Advisory: advisory,
	}
}
