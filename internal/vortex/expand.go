package vortex

import "strings"

// LookupEnvFunc resolves one environment variable, like os.LookupEnv.
type LookupEnvFunc func(name string) (string, bool)

// ExpandWindowsEnv replaces %NAME% tokens using lookup. Unknown names and
// unpaired percent signs are left untouched, matching the Windows shell.
func ExpandWindowsEnv(s string, lookup LookupEnvFunc) string {
	if lookup == nil || !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start + 1

		name := rest[start+1 : end]
		b.WriteString(rest[:start])
		if value, ok := lookup(name); ok && name != "" {
			b.WriteString(value)
			rest = rest[end+1:]
			continue
		}
		// Not a variable: emit the first percent sign and rescan from the
		// second, which may open a real token.
		b.WriteString(rest[start:end])
		rest = rest[end:]
	}
	return b.String()
}
