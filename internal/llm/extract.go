package llm

import (
	"regexp"
	"strings"
)

var (
	sqlFenceRe   = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	plainFenceRe = regexp.MustCompile("(?is)```\\s*((?:SELECT|INSERT|UPDATE|DELETE|CREATE|DROP|ALTER|TRUNCATE|WITH).*?)\\s*```")
	createRe     = regexp.MustCompile(`(?is)(CREATE\s+TABLE\s+.*?)(?:;|\n\n|$)`)
	statementRe  = regexp.MustCompile(`(?is)((?:SELECT|INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|WITH)\s.*?)(?:;|\n\n|$)`)
)

var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "TRUNCATE", "WITH"}

// ExtractSQL pulls a single SQL statement out of model output. Fenced code
// blocks win; otherwise the first statement-shaped run of text is taken.
// Returns "" when nothing SQL-like is found.
func ExtractSQL(text string) string {
	for _, re := range []*regexp.Regexp{sqlFenceRe, plainFenceRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if sql := strings.TrimSpace(m[1]); sql != "" {
				return strings.TrimSuffix(sql, ";")
			}
		}
	}

	if m := createRe.FindStringSubmatch(text); m != nil {
		if sql := strings.TrimSpace(m[1]); sql != "" {
			return sql
		}
	}

	if m := statementRe.FindStringSubmatch(text); m != nil {
		if sql := strings.TrimSpace(m[1]); sql != "" {
			return sql
		}
	}

	// Last resort: any line that mentions a SQL keyword.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		for _, kw := range sqlKeywords {
			if strings.Contains(upper, kw) {
				return strings.TrimSuffix(line, ";")
			}
		}
	}
	return ""
}
