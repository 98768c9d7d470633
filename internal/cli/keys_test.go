package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetKeyFlags() {
	keysInit = false
	keysNew = false
	keysDisable = false
	keysMigratePwd = false
	keysArchive = true
}

func TestRunKeys_InitThenRejectsSecondInit(t *testing.T) {
	dir, repo := initTestRepo(t)
	commitAt(t, repo, dir, "a.txt", "test@example.com", time.Now())
	resetOpts(t, dir)
	resetKeyFlags()

	require.NoError(t, runKeys(nil, nil))
	assert.Contains(t, opts.Stdout.(*strings.Builder).String(), "initialisation successful")

	err := runKeys(nil, nil)
	require.Error(t, err, "a second --init must fail: a key already exists")
}

func TestRunKeys_NewRotatesActiveKey(t *testing.T) {
	dir, repo := initTestRepo(t)
	commitAt(t, repo, dir, "a.txt", "test@example.com", time.Now())
	resetOpts(t, dir)
	resetKeyFlags()

	require.NoError(t, runKeys(nil, nil))

	ctx, err := openContext()
	require.NoError(t, err)
	before, ok, err := ctx.Store.ActiveKey()
	require.NoError(t, err)
	require.True(t, ok)

	resetKeyFlags()
	keysNew = true
	require.NoError(t, runKeys(nil, nil))

	after, ok, err := ctx.Store.ActiveKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, before, after)

	archived, err := ctx.Store.ArchivedKeys()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, before, archived[0])
}

func TestKeysCmd_InitFlagParses(t *testing.T) {
	resetKeyFlags()
	require.NoError(t, keysCmd.Flags().Parse([]string{"--init"}))
	assert.True(t, keysInit)
}

func TestRunKeys_RejectsConflictingModeFlags(t *testing.T) {
	dir, repo := initTestRepo(t)
	commitAt(t, repo, dir, "a.txt", "test@example.com", time.Now())
	resetOpts(t, dir)
	resetKeyFlags()
	keysNew = true
	keysDisable = true

	err := runKeys(nil, nil)
	require.Error(t, err)
}
