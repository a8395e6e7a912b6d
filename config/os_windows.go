//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/term"
)

const badNameRunes = `<>":/\|?*` + string(os.PathSeparator) + string(os.PathListSeparator)

// CleanFileName strips characters NTFS refuses out of a would-be file name.
func CleanFileName(in string) string {
	var b strings.Builder
	for _, r := range in {
		if r == 0 || strings.ContainsRune(badNameRunes, r) {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "_invalid_name_"
	}
	return b.String()
}

// EnableColorOutput reports whether the stream can take colorized output,
// switching the console into VT100 processing mode when it can. Anything
// before Windows 10 has no usable VT support.
func EnableColorOutput(stream *os.File) bool {
	if windowsMajorVersion() < 10 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	var mode uint32
	if err := windows.GetConsoleMode(windows.Handle(stream.Fd()), &mode); err != nil {
		return false
	}
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	return windows.SetConsoleMode(windows.Handle(stream.Fd()), mode) == nil
}

func windowsMajorVersion() uint64 {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return 0
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber")
	if err != nil {
		return 0
	}
	return v
}
