// Package codec implements the message codec (C4): it encodes a commit's
// redacted dates into a commit message and decodes them back out. Grounded
// on original_source/gitprivacy/encoder/__init__.py and msgembed.py.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/empri-devops/git-privacy/internal/crypto"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// Tag is the prefix identifying a GitPrivacy line in a commit message.
const Tag = "GitPrivacy: "

var tagLine = regexp.MustCompile(`^GitPrivacy: (\S+)(?: (\S+))?`)

// Commit is the minimal borrowed view of a commit the codec needs:
// author/committer dates and the message, exactly as read off the object.
type Commit struct {
	AuthorDate    timestamp.Timestamp
	CommitterDate timestamp.Timestamp
	Message       string
}

// Result is the outcome of encoding a commit. Msg is empty when the
// message is unchanged (both dates were already redacted).
type Result struct {
	AuthorDate    timestamp.Timestamp
	CommitterDate timestamp.Timestamp
	Message       string
}

// Encoder computes new dates (and, optionally, a new message) for a commit.
type Encoder interface {
	Encode(c Commit) (Result, error)
}

// Decoder recovers the original author/committer dates from a commit's
// message, when recoverable. Either return value may be nil.
type Decoder interface {
	Decode(c Commit) (authorDate, committerDate *timestamp.Timestamp)
}

// BasicEncoder redacts dates per a Pattern and otherwise leaves the message
// untouched. ExtraFn, when set, lets a wrapping encoder (such as
// MessageEmbeddingEncoder) append or rewrite a trailer line.
type BasicEncoder struct {
	Pattern timestamp.Pattern
	ExtraFn func(c Commit) string
}

// Encode redacts both dates; if neither changed, Message is left empty to
// signal "no-op". Otherwise it appends whatever ExtraFn produces (if any).
func (e *BasicEncoder) Encode(c Commit) (Result, error) {
	newA := e.Pattern.Redact(c.AuthorDate)
	newC := e.Pattern.Redact(c.CommitterDate)
	if newA.Equal(c.AuthorDate) && newC.Equal(c.CommitterDate) {
		return Result{AuthorDate: newA, CommitterDate: newC}, nil
	}

	msg := ""
	if e.ExtraFn != nil {
		if extra := e.ExtraFn(c); extra != "" {
			base := strings.TrimRight(stripTagLine(c.Message), "\n")
			msg = base + "\n" + extra
		}
	}
	return Result{AuthorDate: newA, CommitterDate: newC, Message: msg}, nil
}

// stripTagLine removes the first GitPrivacy trailer line from message, if
// any, so a re-encode replaces it instead of appending a second one.
func stripTagLine(message string) string {
	lines := strings.Split(message, "\n")
	for i, line := range lines {
		if tagLine.MatchString(line) {
			return strings.Join(append(lines[:i], lines[i+1:]...), "\n")
		}
	}
	return message
}

// BasicDecoder recovers nothing beyond what the commit metadata already
// carries — both dates are always present.
type BasicDecoder struct{}

// Decode returns the commit's own dates unchanged.
func (BasicDecoder) Decode(c Commit) (*timestamp.Timestamp, *timestamp.Timestamp) {
	a, cm := c.AuthorDate, c.CommitterDate
	return &a, &cm
}

// MessageEmbeddingEncoder additionally encrypts dates into a GitPrivacy
// trailer line. It implements both Encoder and Decoder.
//
// Substitution rule: when a tag line is already present, the author-date
// ciphertext is preserved verbatim (whatever legacy format it carries) and
// only the committer-date portion is replaced with a fresh ciphertext of
// the current committer date. This lets committer-date updates survive
// repeated amend/rebase cycles while the original author-date ciphertext
// — the one thing that must never drift — stays put.
type MessageEmbeddingEncoder struct {
	*BasicEncoder
	Crypto crypto.EncryptionProvider
}

// NewMessageEmbeddingEncoder builds an encoder that redacts per pattern and
// embeds encrypted dates via crypto.
func NewMessageEmbeddingEncoder(pattern timestamp.Pattern, cr crypto.EncryptionProvider) *MessageEmbeddingEncoder {
	m := &MessageEmbeddingEncoder{Crypto: cr}
	m.BasicEncoder = &BasicEncoder{Pattern: pattern, ExtraFn: m.messageExtra}
	return m
}

func (m *MessageEmbeddingEncoder) messageExtra(c Commit) string {
	author, _ := extractCiphers(c.Message)
	if author == "" {
		aCipher, err := m.Crypto.Encrypt(gitdate(c.AuthorDate))
		if err != nil {
			return ""
		}
		cCipher, err := m.Crypto.Encrypt(gitdate(c.CommitterDate))
		if err != nil {
			return ""
		}
		return Tag + aCipher + " " + cCipher
	}

	// Tag already present: keep the author cipher, refresh the committer one.
	cCipher, err := m.Crypto.Encrypt(gitdate(c.CommitterDate))
	if err != nil {
		return ""
	}
	return Tag + author + " " + cCipher
}

// Decode extracts and decrypts the tag line, if any, honoring the legacy
// combined and mixed formats documented alongside Tag.
func (m *MessageEmbeddingEncoder) Decode(c Commit) (*timestamp.Timestamp, *timestamp.Timestamp) {
	authorCipher, committerCipher := extractCiphers(c.Message)
	if authorCipher == "" {
		return nil, nil
	}

	var aDate, cDate *timestamp.Timestamp

	rawA, ok := m.Crypto.Decrypt(authorCipher)
	if !ok {
		rawA = ""
	}

	if committerCipher != "" {
		// Dedicated ciphers: decrypt each independently.
		if ts, err := parseGitdate(rawA); err == nil {
			aDate = &ts
		}
		if rawC, ok := m.Crypto.Decrypt(committerCipher); ok {
			if ts, err := parseGitdate(rawC); err == nil {
				cDate = &ts
			}
		}
		return aDate, cDate
	}

	// Single cipher: either a plain author date, or a legacy combined
	// "a;c" plaintext that bundles both dates together.
	if rawA == "" {
		return nil, nil
	}
	if strings.Contains(rawA, ";") {
		parts := strings.SplitN(rawA, ";", 2)
		if ts, err := parseGitdate(parts[0]); err == nil {
			aDate = &ts
		}
		if len(parts) > 1 {
			if ts, err := parseGitdate(parts[1]); err == nil {
				cDate = &ts
			}
		}
		return aDate, cDate
	}
	if ts, err := parseGitdate(rawA); err == nil {
		aDate = &ts
	}
	return aDate, nil
}

// extractCiphers returns the first tag line's (authorCipher, committerCipher)
// pair, with committerCipher empty when the line carries only one cipher.
func extractCiphers(message string) (string, string) {
	for _, line := range strings.Split(message, "\n") {
		m := tagLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return m[1], m[2]
	}
	return "", ""
}

// gitdate renders a timestamp as "<posix_seconds> <±HHMM>", the plaintext
// format ciphers are computed over.
func gitdate(ts timestamp.Timestamp) string {
	return fmt.Sprintf("%d %s", ts.Unix(), ts.TZToken())
}

// parseGitdate is the inverse of gitdate.
func parseGitdate(s string) (timestamp.Timestamp, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return timestamp.Timestamp{}, fmt.Errorf("codec: malformed gitdate %q", s)
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return timestamp.Timestamp{}, fmt.Errorf("codec: malformed gitdate seconds %q: %w", fields[0], err)
	}
	offset, err := timestamp.ParseTZToken(fields[1])
	if err != nil {
		return timestamp.Timestamp{}, fmt.Errorf("codec: malformed gitdate tz %q: %w", fields[1], err)
	}
	return timestamp.FromUnix(sec, offset), nil
}
