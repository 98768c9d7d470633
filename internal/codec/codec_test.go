package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empri-devops/git-privacy/internal/crypto"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

func ts(y int, mo time.Month, d, h, mi, s, offsetMinutes int) timestamp.Timestamp {
	return timestamp.FromUnix(
		time.Date(y, mo, d, h, mi, s, 0, time.FixedZone("", offsetMinutes*60)).Unix(),
		offsetMinutes,
	)
}

func mustPattern(t *testing.T, csv string) timestamp.Pattern {
	t.Helper()
	p, err := timestamp.ParsePattern(csv)
	require.NoError(t, err)
	return p
}

func TestBasicEncoder_NoOpWhenAlreadyRedacted(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "m,s")
	e := &BasicEncoder{Pattern: p}

	c := Commit{
		AuthorDate:    ts(2018, time.December, 18, 14, 0, 0, 0),
		CommitterDate: ts(2018, time.December, 18, 14, 0, 0, 0),
		Message:       "fix bug",
	}
	res, err := e.Encode(c)
	require.NoError(t, err)
	assert.Empty(t, res.Message)
}

func TestBasicEncoder_RedactsAndLeavesMessageUnchangedWithoutExtraFn(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "m,s")
	e := &BasicEncoder{Pattern: p}

	c := Commit{
		AuthorDate:    ts(2018, time.December, 18, 14, 42, 13, 0),
		CommitterDate: ts(2018, time.December, 18, 14, 42, 13, 0),
		Message:       "fix bug",
	}
	res, err := e.Encode(c)
	require.NoError(t, err)
	assert.Equal(t, "Tue Dec 18 14:00:00 2018 +0000", res.AuthorDate.String())
	assert.Empty(t, res.Message, "no ExtraFn means no trailer, even though dates changed")
}

func TestBasicDecoder_ReturnsCommitDates(t *testing.T) {
	t.Parallel()
	c := Commit{
		AuthorDate:    ts(2018, time.December, 18, 14, 0, 0, 0),
		CommitterDate: ts(2018, time.December, 18, 15, 0, 0, 0),
		Message:       "whatever",
	}
	a, cm := BasicDecoder{}.Decode(c)
	require.NotNil(t, a)
	require.NotNil(t, cm)
	assert.True(t, a.Equal(c.AuthorDate))
	assert.True(t, cm.Equal(c.CommitterDate))
}

func newProvider(t *testing.T) crypto.EncryptionProvider {
	t.Helper()
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	return crypto.NewSecretBox(k)
}

func TestMessageEmbeddingEncoder_AppendsFreshTag(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "m,s")
	cr := newProvider(t)
	e := NewMessageEmbeddingEncoder(p, cr)

	c := Commit{
		AuthorDate:    ts(2018, time.December, 18, 14, 42, 13, 0),
		CommitterDate: ts(2018, time.December, 18, 14, 42, 13, 0),
		Message:       "fix bug",
	}
	res, err := e.Encode(c)
	require.NoError(t, err)
	require.Contains(t, res.Message, Tag)

	a, cm := e.Decode(Commit{Message: res.Message})
	require.NotNil(t, a)
	require.NotNil(t, cm)
	assert.True(t, a.Equal(c.AuthorDate))
	assert.True(t, cm.Equal(c.CommitterDate))
}

func TestMessageEmbeddingEncoder_SubstitutionRulePreservesAuthorRefreshesCommitter(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "m,s")
	cr := newProvider(t)
	e := NewMessageEmbeddingEncoder(p, cr)

	original := Commit{
		AuthorDate:    ts(2018, time.December, 18, 14, 42, 13, 0),
		CommitterDate: ts(2018, time.December, 18, 14, 42, 13, 0),
		Message:       "fix bug",
	}
	first, err := e.Encode(original)
	require.NoError(t, err)
	require.Contains(t, first.Message, Tag)
	firstAuthorCipher, _ := extractCiphers(first.Message)

	amended := Commit{
		AuthorDate:    first.AuthorDate,
		CommitterDate: ts(2018, time.December, 19, 9, 0, 0, 0),
		Message:       first.Message,
	}
	second, err := e.Encode(amended)
	require.NoError(t, err)
	require.Contains(t, second.Message, Tag)
	assert.Equal(t, 1, strings.Count(second.Message, Tag), "re-encoding must keep exactly one GitPrivacy tag line")
	secondAuthorCipher, _ := extractCiphers(second.Message)

	assert.Equal(t, firstAuthorCipher, secondAuthorCipher, "author cipher must be preserved across re-encodes")

	a, cm := e.Decode(Commit{Message: second.Message})
	require.NotNil(t, a)
	require.NotNil(t, cm)
	assert.True(t, a.Equal(original.AuthorDate))
	assert.True(t, cm.Equal(amended.CommitterDate))
}

func TestMessageEmbeddingEncoder_DecodeLegacyCombinedCipher(t *testing.T) {
	t.Parallel()
	cr := newProvider(t)
	e := NewMessageEmbeddingEncoder(mustPattern(t, ""), cr)

	a := ts(2018, time.December, 18, 14, 42, 13, 0)
	c := ts(2018, time.December, 18, 15, 0, 0, 0)
	combinedPlain := gitdate(a) + ";" + gitdate(c)
	cipher, err := cr.Encrypt(combinedPlain)
	require.NoError(t, err)

	msg := Tag + cipher
	aGot, cGot := e.Decode(Commit{Message: msg})
	require.NotNil(t, aGot)
	require.NotNil(t, cGot)
	assert.True(t, aGot.Equal(a))
	assert.True(t, cGot.Equal(c))
}

func TestMessageEmbeddingEncoder_DecodeMixedLegacyIgnoresEmbeddedCommitterHalf(t *testing.T) {
	t.Parallel()
	cr := newProvider(t)
	e := NewMessageEmbeddingEncoder(mustPattern(t, ""), cr)

	a := ts(2018, time.December, 18, 14, 42, 13, 0)
	staleC := ts(2018, time.December, 18, 15, 0, 0, 0)
	freshC := ts(2018, time.December, 19, 9, 0, 0, 0)

	combinedPlain := gitdate(a) + ";" + gitdate(staleC)
	combinedCipher, err := cr.Encrypt(combinedPlain)
	require.NoError(t, err)
	freshCipher, err := cr.Encrypt(gitdate(freshC))
	require.NoError(t, err)

	msg := Tag + combinedCipher + " " + freshCipher
	aGot, cGot := e.Decode(Commit{Message: msg})
	require.NotNil(t, aGot)
	require.NotNil(t, cGot)
	assert.True(t, aGot.Equal(a))
	assert.True(t, cGot.Equal(freshC), "dedicated second cipher should win over the embedded committer half")
}

func TestMessageEmbeddingEncoder_DecodeNoTagYieldsNils(t *testing.T) {
	t.Parallel()
	e := NewMessageEmbeddingEncoder(mustPattern(t, ""), newProvider(t))
	a, c := e.Decode(Commit{Message: "just a normal commit message"})
	assert.Nil(t, a)
	assert.Nil(t, c)
}

func TestMessageEmbeddingEncoder_DecodeFailureOnOneSideDoesNotAffectOther(t *testing.T) {
	t.Parallel()
	cr := newProvider(t)
	e := NewMessageEmbeddingEncoder(mustPattern(t, ""), cr)

	a := ts(2018, time.December, 18, 14, 42, 13, 0)
	aCipher, err := cr.Encrypt(gitdate(a))
	require.NoError(t, err)

	msg := Tag + aCipher + " not-a-valid-cipher"
	aGot, cGot := e.Decode(Commit{Message: msg})
	require.NotNil(t, aGot)
	assert.True(t, aGot.Equal(a))
	assert.Nil(t, cGot)
}

func TestGitdateRoundTrip(t *testing.T) {
	t.Parallel()
	in := ts(2018, time.December, 18, 14, 42, 13, -330)
	out, err := parseGitdate(gitdate(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}
