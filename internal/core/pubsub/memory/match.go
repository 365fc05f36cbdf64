package memory

import "strings"

// matchSubject reports whether subject matches pattern using NATS wildcard
// semantics: "*" matches exactly one token, ">" matches one or more trailing
// tokens.
func matchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			// ">" must match at least one remaining token
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}
