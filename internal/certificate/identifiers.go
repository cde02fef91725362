package certificate

import (
	"cmp"
	"crypto/rand"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/timeline"
)

// readable omits characters that are easy to misread: 0/O and 1/I/L.
const readable = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	batchSuffixLen = 4
	maxTitleAbbrev = 6
)

// Fold strips diacritics and lower-cases s, so "Ñoño" and "nono" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Initials returns the upper-cased first letter or digit of every word in s.
func Initials(s string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(Fold(s), isSeparator) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_' || r == '/' || r == '.' || r == ','
}

// Rank is the 1-based alphabetical position of participantID among the
// approved enrollees. Names compare accent- and case-insensitively; equal
// names keep their approval order, which is the order of approved. It
// returns 0 when the participant is not among them.
func Rank(participantID string, approved []model.Enrollment) int {
	ordered := slices.Clone(approved)
	slices.SortStableFunc(ordered, func(a, b model.Enrollment) int {
		return cmp.Compare(Fold(a.ParticipantName), Fold(b.ParticipantName))
	})
	for i, e := range ordered {
		if e.ParticipantID == participantID {
			return i + 1
		}
	}
	return 0
}

// SerialNumber renders NAME-CATEGORY-YYMMDD-RANK, e.g. "JDC-CS-250310-004".
func SerialNumber(participantName, category string, firstDay timeline.Day, rank int) string {
	return fmt.Sprintf("%s-%s-%s-%03d",
		orDefault(Initials(participantName), "X"),
		orDefault(Initials(category), "X"),
		firstDay.Compact(),
		rank)
}

// BatchCode renders B{YYYYMMDD}-{TITLE}-{XXXX} with a random readable suffix
// drawn from rnd. A nil rnd uses crypto/rand.
func BatchCode(day timeline.Day, title string, rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	buf := make([]byte, batchSuffixLen)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", fmt.Errorf("failed to read batch suffix: %w", err)
	}
	suffix := make([]byte, batchSuffixLen)
	for i, b := range buf {
		suffix[i] = readable[int(b)%len(readable)]
	}

	abbrev := []rune(Initials(title))
	if len(abbrev) > maxTitleAbbrev {
		abbrev = abbrev[:maxTitleAbbrev]
	}
	return fmt.Sprintf("B%04d%02d%02d-%s-%s",
		day.Year(), int(day.Month()), day.Dom(),
		orDefault(string(abbrev), "PRG"),
		suffix), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
