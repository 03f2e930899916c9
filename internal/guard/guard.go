// Package guard is the lexical read-only enforcement layer.
//
// IsReadOnly rejects any statement containing a mutating keyword as a
// standalone token. This is a syntactic, not semantic, defense: it does
// not parse SQL and can be evaded by obfuscation (comments, string
// literals, keywords fused into identifiers). QuerySight is a
// single-tenant analytics tool, so this is treated as a safety rail for
// honest mistakes, not as a security boundary against an adversary.
//
// Every execution path that accepts planner-produced or user-edited SQL
// must run the guardrail before touching the store; the executor re-runs
// it as defense in depth.
package guard

import "strings"

// forbiddenKeywords is the fixed allowlist-complement of mutating
// statements. Matching is case-insensitive and whole-token only.
var forbiddenKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"DROP":     true,
	"CREATE":   true,
	"ALTER":    true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
	"COMMIT":   true,
	"ROLLBACK": true,
	"REPLACE":  true,
}

// IsReadOnly reports whether sql contains no forbidden keyword as a
// standalone token. A keyword matches only when bounded by whitespace or
// by the start/end of the trimmed text; a keyword embedded in a longer
// token (e.g. "UPDATED_AT") does not match.
func IsReadOnly(sql string) bool {
	return Violation(sql) == ""
}

// Violation returns the first forbidden keyword found in sql as a
// standalone token, or "" when the statement is read-only. Callers use
// it to report blocked statements verbatim.
func Violation(sql string) string {
	for _, token := range strings.Fields(strings.ToUpper(sql)) {
		if forbiddenKeywords[token] {
			return token
		}
	}
	return ""
}
