package order

import (
	"strings"
	"time"
	"unicode/utf8"
)

// codeTimeLayout matches the millisecond-precision UTC timestamp the order
// code embeds.
const codeTimeLayout = "2006-01-02T15:04:05.000Z"

// GenerateCode derives a human-readable order code: the upper-cased first
// character of the customer name, the last 4 characters of the email, and the
// submission timestamp, concatenated without separators.
//
// The code is a best-effort tag, not a primary key: uniqueness goes no
// further than the timestamp's resolution and collision handling is out of
// scope. Validation guarantees a non-empty name and an email long enough for
// the suffix; an empty name here is an invariant breach upstream, so the
// function tolerates it with an empty initial rather than guessing.
func GenerateCode(customerName, email string, now time.Time) string {
	var b strings.Builder

	if customerName != "" {
		r, _ := utf8.DecodeRuneInString(customerName)
		b.WriteString(strings.ToUpper(string(r)))
	}

	// Slice characters, not bytes: an internationalized address must not be
	// cut mid-rune.
	suffix := []rune(email)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	b.WriteString(string(suffix))

	b.WriteString(now.UTC().Format(codeTimeLayout))
	return b.String()
}
