// Package classifier decides whether a SQL statement is safe to run
// immediately or destructive enough to require human sign-off. Matching is
// prefix-based and case-insensitive; it is a guardrail heuristic, not a SQL
// parser.
package classifier

import (
	"regexp"
	"strings"

	"github.com/openclaw/dbagent-server-go/internal/model"
)

// Classification is the result of classifying one statement.
type Classification struct {
	Dangerous bool
	Kind      model.OperationKind
	Target    *string
}

// Safe prefixes are checked before dangerous ones, so a statement matching
// both (e.g. a SELECT whose text mentions DROP) stays safe.
var safePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*SELECT\s`),
	regexp.MustCompile(`(?i)^\s*INSERT\s+INTO\s`),
	regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s`),
	regexp.MustCompile(`(?i)^\s*SHOW\s`),
	regexp.MustCompile(`(?i)^\s*DESCRIBE\s`),
}

type dangerousPattern struct {
	re   *regexp.Regexp
	kind model.OperationKind
}

// UPDATE is only guarded in its "WHERE 1=1" form; an UPDATE with no WHERE
// clause at all is deliberately left unflagged to match the established
// approval policy.
var dangerousPatterns = []dangerousPattern{
	{regexp.MustCompile(`(?i)^\s*DROP\s`), model.OperationDrop},
	{regexp.MustCompile(`(?i)^\s*DELETE\s+FROM\s`), model.OperationDelete},
	{regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\s`), model.OperationAlter},
	{regexp.MustCompile(`(?i)^\s*TRUNCATE\s+TABLE\s`), model.OperationTruncate},
	{regexp.MustCompile(`(?i)^\s*UPDATE\s+.*\sSET\s.*\sWHERE\s+1\s*=\s*1`), model.OperationMassUpdate},
}

var targetPatterns = map[model.OperationKind]*regexp.Regexp{
	model.OperationDrop:       regexp.MustCompile(`(?i)DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?(\w+)`),
	model.OperationDelete:     regexp.MustCompile(`(?i)DELETE\s+FROM\s+(\w+)`),
	model.OperationAlter:      regexp.MustCompile(`(?i)ALTER\s+TABLE\s+(\w+)`),
	model.OperationTruncate:   regexp.MustCompile(`(?i)TRUNCATE\s+TABLE\s+(\w+)`),
	model.OperationMassUpdate: regexp.MustCompile(`(?i)UPDATE\s+(\w+)`),
}

// Classify inspects a statement and reports whether it needs approval, which
// kind of operation it is, and the affected table when one can be extracted.
// It is pure and safe for concurrent use.
func Classify(statement string) Classification {
	c := Classification{Kind: model.OperationUnknown}

	if strings.TrimSpace(statement) == "" {
		return c
	}

	for _, p := range safePatterns {
		if p.MatchString(statement) {
			return c
		}
	}

	for _, dp := range dangerousPatterns {
		if dp.re.MatchString(statement) {
			c.Dangerous = true
			c.Kind = dp.kind
			c.Target = extractTarget(dp.kind, statement)
			return c
		}
	}

	return c
}

// extractTarget pulls the table name out of a dangerous statement.
// Best-effort: a nil result means "unknown target", not an error.
func extractTarget(kind model.OperationKind, statement string) *string {
	re, ok := targetPatterns[kind]
	if !ok {
		return nil
	}

	match := re.FindStringSubmatch(statement)
	if len(match) < 2 {
		return nil
	}

	target := match[1]
	return &target
}
