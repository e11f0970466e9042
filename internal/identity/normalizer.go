package identity

import (
	"regexp"
	"strings"
)

// groupTitleStrip removes everything that is neither a word character nor
// whitespace, so decorated titles ("★ My Group ★") reduce to their plain
// name before comparison.
var groupTitleStrip = regexp.MustCompile(`[^\w\s]`)

// Candidates expands an identity into the ordered list of comparison
// strings the matcher evaluates, each lower-cased and trimmed:
//
//	first, last, username,
//	first+last, "first last", last+first, "last first",
//	and, when the chat has a title, the group-derived candidate.
//
// Missing name parts become empty strings; empty candidates are kept so the
// output order is stable regardless of which fields were present. An
// exact-matching strategy will simply never match them against a non-empty
// restricted entry.
func Candidates(id Identity, chat ChatContext) []string {
	first := norm(id.FirstName)
	last := norm(id.LastName)
	username := norm(id.Username)

	candidates := []string{
		first,
		last,
		username,
		first + last,
		strings.TrimSpace(first + " " + last),
		last + first,
		strings.TrimSpace(last + " " + first),
	}

	if chat.Title != "" {
		candidates = append(candidates, GroupDerived(chat.Title))
	}

	return candidates
}

// GroupDerived produces the comparison form of a chat title: special
// characters stripped, trimmed, lower-cased.
func GroupDerived(title string) string {
	return norm(groupTitleStrip.ReplaceAllString(title, ""))
}

// Initialism concatenates the first rune of each whitespace-separated token
// of s. Initialism("my group") == "mg". Returns "" for blank input.
func Initialism(s string) string {
	var b strings.Builder
	for _, token := range strings.Fields(s) {
		r := []rune(token)
		b.WriteRune(r[0])
	}
	return b.String()
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
