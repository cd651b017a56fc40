package jsq

import "strings"

// environMap snapshots NAME=value pairs into a name-indexed mapping. The
// snapshot is taken once per run, before script evaluation, and is never
// written back to the process environment.
func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
