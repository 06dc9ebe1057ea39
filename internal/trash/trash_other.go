//go:build !darwin && !windows

package trash

func Default() Trasher { return NewFreedesktop() }
