package dialect

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// FoldCase renders identifier in the given native case. Uses
// golang.org/x/text/cases rather than strings.ToUpper/ToLower because
// identifiers can carry non-ASCII characters (accented schema/table
// names under preserveCase=false) where a locale-stable Unicode casing
// is required, unlike the teacher's ASCII-only strings.ToUpper.
func FoldCase(identifier string, fold CaseFold) string {
	if fold == Upper {
		return upperCaser.String(identifier)
	}
	return lowerCaser.String(identifier)
}

// quoteWith renders identifier quoted with the given open/close quote
// characters when preserveCase is set, otherwise folds to nativeCase.
func quoteWith(identifier string, preserveCase bool, nativeCase CaseFold, open, close string) string {
	if preserveCase {
		return open + identifier + close
	}
	return FoldCase(identifier, nativeCase)
}

// GeneratePlaceholders builds a comma-separated placeholder list using
// placeholderFunc for each zero-based ordinal.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// filterClause renders an optional user-supplied table_filter predicate
// as an "AND (...)" fragment, or empty if filter is blank.
func filterClause(filter string) string {
	if strings.TrimSpace(filter) == "" {
		return ""
	}
	return fmt.Sprintf(" AND (%s)", filter)
}

// orderByPK renders an optional ORDER BY over the primary-key columns
// (database-sort config option).
func orderByPK(pkCols []string, sortByPK bool) string {
	if !sortByPK || len(pkCols) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(pkCols, ", ")
}
