package resolve

import "regexp"

// =============================================================================
// Template Variable Substitution
// =============================================================================

// varPlaceholderRegex matches ${VAR} and ${VAR:-default} patterns.
// Groups:
//   - Group 1: Variable name (required)
//   - Group 2: Default value (optional, after :-)
var varPlaceholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Substitute replaces ${VAR} and ${VAR:-default} placeholders with values
// from the variables map. Template artifacts are rendered through this.
//
// Behavior:
//   - ${VAR} - replaced with variables["VAR"] if present, otherwise kept as-is
//   - ${VAR:-default} - replaced with variables["VAR"] if present, otherwise "default"
//   - Unmatched text is left unchanged
func Substitute(value string, variables map[string]string) string {
	if variables == nil {
		variables = make(map[string]string)
	}

	return varPlaceholderRegex.ReplaceAllStringFunc(value, func(match string) string {
		submatch := varPlaceholderRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		name := submatch[1]
		if val, ok := variables[name]; ok {
			return val
		}
		// ${VAR:-} and ${VAR:-default} both fall back to the default,
		// which may be empty.
		if len(match) > len(name)+3 && match[2+len(name)] == ':' {
			return submatch[2]
		}
		return match
	})
}
