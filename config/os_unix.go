//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const badNameRunes = string(os.PathSeparator) + string(os.PathListSeparator)

// CleanFileName strips path separators out of a would-be file name and
// refuses to produce a hidden name.
func CleanFileName(in string) string {
	var b strings.Builder
	for _, r := range in {
		if strings.ContainsRune(badNameRunes, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) == 0 {
		return "_invalid_name_"
	}
	return out
}

// EnableColorOutput reports whether the stream can take colorized output.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
