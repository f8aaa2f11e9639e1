package domain

import "strings"

// NormalizeScopes dedupes and drops empty scope values, preserving the
// order of first appearance.
func NormalizeScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ScopeImplies reports whether a granted scope value covers a requested
// one. Scopes are hierarchical with ":" separators, so "profile" implies
// "profile:email" but not "profiles".
func ScopeImplies(granted, requested string) bool {
	if granted == requested {
		return true
	}
	return strings.HasPrefix(requested, granted+":")
}

// ScopesCover reports whether every requested scope is implied by at
// least one granted scope.
func ScopesCover(granted, requested []string) bool {
	for _, req := range requested {
		covered := false
		for _, g := range granted {
			if ScopeImplies(g, req) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// JoinScopes renders a scope set in the space-delimited wire form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
