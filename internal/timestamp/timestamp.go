// Package timestamp implements the redaction policy (C3): turning a precise
// commit timestamp into a coarsened or window-clamped one under a
// configurable pattern, and testing whether a timestamp is already
// redacted. Grounded on gitprivacy/timestamp.py and
// gitprivacy/dateredacter/reduce.py from the original implementation.
package timestamp

import (
	"fmt"
	"strings"
	"time"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

// Layout is the locale-independent format git-privacy prints dates in:
// "%a %b %d %H:%M:%S %Y %z" in strftime terms.
const Layout = "Mon Jan 02 15:04:05 2006 -0700"

// Timestamp is an instant plus the timezone offset (in minutes east of
// UTC) it was originally recorded with. Redaction never changes Offset.
type Timestamp struct {
	Instant time.Time // always carries Offset as its zone
	Offset  int       // minutes east of UTC
}

// New builds a Timestamp from a time.Time, capturing its zone offset.
func New(t time.Time) Timestamp {
	_, offsetSeconds := t.Zone()
	return Timestamp{Instant: t, Offset: offsetSeconds / 60}
}

// FromUnix builds a Timestamp from POSIX seconds and an offset in minutes
// east of UTC, as embedded in a message tag (see internal/codec).
func FromUnix(seconds int64, offsetMinutes int) Timestamp {
	loc := fixedZone(offsetMinutes)
	return Timestamp{Instant: time.Unix(seconds, 0).In(loc), Offset: offsetMinutes}
}

func fixedZone(offsetMinutes int) *time.Location {
	sign := "+"
	m := offsetMinutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	name := fmt.Sprintf("%s%02d%02d", sign, m/60, m%60)
	return time.FixedZone(name, offsetMinutes*60)
}

// Unix returns the POSIX second count.
func (t Timestamp) Unix() int64 { return t.Instant.Unix() }

// TZToken formats the offset as the "±HHMM" token used in the message tag
// plaintext, e.g. "+0000" or "-0530".
func (t Timestamp) TZToken() string {
	sign := "+"
	m := t.Offset
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%02d%02d", sign, m/60, m%60)
}

// ParseTZToken parses a "±HHMM" token into minutes east of UTC.
func ParseTZToken(tok string) (int, error) {
	if len(tok) != 5 || (tok[0] != '+' && tok[0] != '-') {
		return 0, fmt.Errorf("invalid timezone token %q", tok)
	}
	var hh, mm int
	if _, err := fmt.Sscanf(tok[1:], "%02d%02d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid timezone token %q: %w", tok, err)
	}
	offset := hh*60 + mm
	if tok[0] == '-' {
		offset = -offset
	}
	return offset, nil
}

// String renders the timestamp in git-privacy's canonical display format.
func (t Timestamp) String() string {
	return t.Instant.Format(Layout)
}

// Equal compares two timestamps to the second, including offset.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.Unix() == o.Unix() && t.Offset == o.Offset
}

// Token identifies one field of the redaction pattern.
type Token byte

const (
	TokenMonth  Token = 'M'
	TokenDay    Token = 'd'
	TokenHour   Token = 'h'
	TokenMinute Token = 'm'
	TokenSecond Token = 's'
)

// Window is an hour range [Start, End) the redacted hour is clamped into.
// The zero value means "no window configured".
type Window struct {
	Start, End int // hours, 0 <= Start < End <= 24
	set        bool
}

// NewWindow validates and builds a Window.
func NewWindow(start, end int) (Window, error) {
	if start < 0 || end > 24 || start >= end {
		return Window{}, gperrors.Policy("timestamp.NewWindow",
			fmt.Sprintf("invalid hour window [%d,%d)", start, end))
	}
	return Window{Start: start, End: end, set: true}, nil
}

// Set reports whether a window is configured.
func (w Window) Set() bool { return w.set }

// ParseLimit parses the "limit" config value, an "H1-H2" hour range (e.g.
// "9-17"). An empty string yields an unset Window — no clamp applied.
func ParseLimit(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Window{}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Window{}, gperrors.Policy("timestamp.ParseLimit", fmt.Sprintf("invalid limit %q, want \"H1-H2\"", s))
	}
	var start, end int
	if _, err := fmt.Sscanf(parts[0], "%d", &start); err != nil {
		return Window{}, gperrors.Policy("timestamp.ParseLimit", fmt.Sprintf("invalid limit %q", s))
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &end); err != nil {
		return Window{}, gperrors.Policy("timestamp.ParseLimit", fmt.Sprintf("invalid limit %q", s))
	}
	return NewWindow(start, end)
}

// Pattern is the redaction policy: an unordered set of tokens to coarsen
// to their minimum, plus an optional hour window.
type Pattern struct {
	tokens map[Token]bool
	Window Window
}

// ParsePattern parses a comma-separated token list (e.g. "m,s") per
// spec.md's csv-of-{M,d,h,m,s} config format. An empty string yields the
// identity pattern (no tokens).
func ParsePattern(csv string) (Pattern, error) {
	p := Pattern{tokens: make(map[Token]bool)}
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return p, nil
	}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) != 1 {
			return Pattern{}, gperrors.Policy("timestamp.ParsePattern",
				fmt.Sprintf("invalid pattern token %q", part))
		}
		tok := Token(part[0])
		switch tok {
		case TokenMonth, TokenDay, TokenHour, TokenMinute, TokenSecond:
			p.tokens[tok] = true
		default:
			return Pattern{}, gperrors.Policy("timestamp.ParsePattern",
				fmt.Sprintf("unrecognized pattern token %q", part))
		}
	}
	return p, nil
}

// Has reports whether tok is present in the pattern.
func (p Pattern) Has(tok Token) bool { return p.tokens[tok] }

// Empty reports whether the pattern has no tokens set (the identity
// pattern, modulo any window).
func (p Pattern) Empty() bool { return len(p.tokens) == 0 }

// Redact applies the pattern: each present token coarsens the
// corresponding field of ts's broken-down local time to its minimum, then
// the window (if configured) clamps the resulting hour. The timezone
// offset is never altered.
//
// Idempotence (redact(redact(ts)) == redact(ts)) holds for every pattern:
// coarsening a field already at its minimum is a no-op, and the window
// clamp's exclusive upper bound makes the clamp stable once applied.
func (p Pattern) Redact(ts Timestamp) Timestamp {
	loc := ts.Instant.Location()
	y, mo, d := ts.Instant.Date()
	h, mi, s := ts.Instant.Clock()

	if p.Has(TokenMonth) {
		mo = time.January
	}
	if p.Has(TokenDay) {
		d = 1
	}
	if p.Has(TokenHour) {
		h = 0
	}
	if p.Has(TokenMinute) {
		mi = 0
	}
	if p.Has(TokenSecond) {
		s = 0
	}

	if p.Window.Set() {
		if h < p.Window.Start {
			h, mi, s = p.Window.Start, 0, 0
		} else if h >= p.Window.End {
			h, mi, s = p.Window.End, 0, 0
		}
	}

	redacted := time.Date(y, mo, d, h, mi, s, 0, loc)
	return Timestamp{Instant: redacted, Offset: ts.Offset}
}

// IsRedacted reports whether ts is already a fixed point of Redact.
func (p Pattern) IsRedacted(ts Timestamp) bool {
	return p.Redact(ts).Equal(ts)
}
