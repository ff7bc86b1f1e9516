package logic

import (
	"regexp"
	"strings"
)

var (
	pythonImportPattern = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

	jsRequirePattern = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsImportPattern  = regexp.MustCompile(`(?m)^\s*import\s+(?:[^'"]*\s+from\s+)?['"]([^'"]+)['"]`)
)

// extractDependencies scans source for imported module names. The list
// is informational; nothing is installed on its behalf.
func extractDependencies(language, code string) []string {
	var matches [][]string
	switch language {
	case "python":
		matches = pythonImportPattern.FindAllStringSubmatch(code, -1)
	case "javascript":
		matches = jsRequirePattern.FindAllStringSubmatch(code, -1)
		matches = append(matches, jsImportPattern.FindAllStringSubmatch(code, -1)...)
	default:
		return nil
	}

	seen := make(map[string]struct{})
	var deps []string
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		// Keep only the top-level package of scoped or nested paths.
		if language == "javascript" && !strings.HasPrefix(name, "@") {
			if idx := strings.Index(name, "/"); idx > 0 {
				name = name[:idx]
			}
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}
	return deps
}

func joinDependencies(deps []string) string {
	return strings.Join(deps, ",")
}

func splitDependencies(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
