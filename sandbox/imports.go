package sandbox

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

var (
	importLineRE = regexp.MustCompile(`^\s*import\s+(.+)`)
	fromLineRE   = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\b`)
)

// ScanImports returns the top-level module names the source imports, in
// order of first appearance. The scan is line based and conservative: a
// line that looks like an import statement is treated as one.
func ScanImports(source string) []string {
	seen := map[string]bool{}
	var mods []string
	add := func(name string) {
		top := topModule(name)
		if top == "" || seen[top] {
			return
		}
		seen[top] = true
		mods = append(mods, top)
	}

	for _, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		if m := fromLineRE.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := importLineRE.FindStringSubmatch(line); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				add(part)
			}
		}
	}
	return mods
}

// CheckImports rejects any import outside the allowlist. It runs before
// execution so disallowed code never produces partial side effects.
func CheckImports(source string, allowed []string) error {
	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[topModule(name)] = true
	}
	for _, mod := range ScanImports(source) {
		if !allowedSet[mod] {
			return errors.WithMessagef(ErrDisallowedImport, "module %q", mod)
		}
	}
	return nil
}

// topModule extracts the leading identifier of a dotted module path,
// dropping aliases, relative-import dots and anything past the first
// non-identifier rune.
func topModule(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, ".")
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		break
	}
	return b.String()
}
