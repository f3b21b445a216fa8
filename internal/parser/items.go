package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxItemLength drops lines that are prose rather than a grocery item.
const maxItemLength = 40

var (
	// "- ", "* ", "• ", "1. ", "2) ", "[ ] ", "[x] "
	bulletPattern = regexp.MustCompile(`^(?:[-*•·▪◦–]+|\d+[.)]|\[[ xX✓]?\])\s*`)
	// "2x", "x2", "3 ×", "500g", "1.5 kg", "2 lbs", "6 pcs", "a dozen"
	quantityPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:\d+(?:[.,]\d+)?\s*(?:x|×|kg|g|gr|lbs?|oz|ml|l|pcs?|pack|packs|bottles?|cans?|bags?|dozen)?|x\s*\d+|a\s+dozen)(?:\s|$)`)
	// trailing notes in parentheses
	notePattern = regexp.MustCompile(`\s*\([^)]*\)`)
)

// ExtractItems turns grocery list text into candidate item labels: one per
// line, with bullets, quantities and notes removed. Duplicates are dropped
// ignoring case and the first spelling is kept.
func ExtractItems(text string) []string {
	seen := make(map[string]struct{})
	var items []string

	for _, line := range strings.Split(text, "\n") {
		item := cleanItem(line)
		if item == "" || utf8.RuneCountInString(item) > maxItemLength {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}
	return items
}

func cleanItem(line string) string {
	s := strings.TrimSpace(line)
	// headings such as "Dairy:" name a section, not an item
	if strings.HasSuffix(s, ":") {
		return ""
	}
	s = bulletPattern.ReplaceAllString(s, "")
	s = notePattern.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ";,. ")

	// quantities may sit on either side of the name
	for {
		next := strings.TrimSpace(quantityPattern.ReplaceAllString(" "+s+" ", " "))
		if next == s {
			break
		}
		s = next
	}

	s = strings.TrimRight(strings.Join(strings.Fields(s), " "), ";,. ")
	if !strings.ContainsFunc(s, isLetter) {
		return ""
	}
	return s
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > utf8.RuneSelf
}
