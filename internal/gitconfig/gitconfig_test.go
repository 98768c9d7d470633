package gitconfig

import (
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	return repo
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	c, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, "reduce", c.Mode)
	assert.Equal(t, "", c.Pattern)
	assert.True(t, c.IgnoreTimezone)
	assert.False(t, c.Replacements)
}

func TestWrite_PersistsAndReloads(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	c, err := Load(repo)
	require.NoError(t, err)

	require.NoError(t, c.Write(map[string]string{
		"pattern": "h,m,s",
		"limit":   "9-17",
	}))

	reloaded, err := Load(repo)
	require.NoError(t, err)
	assert.Equal(t, "h,m,s", reloaded.Pattern)
	assert.Equal(t, "9-17", reloaded.Limit)
}

func TestCommentOutPasswordOptions(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	c, err := Load(repo)
	require.NoError(t, err)
	require.NoError(t, c.Write(map[string]string{
		"password": "hunter2",
		"salt":     "abcd1234",
	}))

	c, err = Load(repo)
	require.NoError(t, err)
	require.Equal(t, "hunter2", c.Password)

	require.NoError(t, c.CommentOutPasswordOptions())
	assert.Empty(t, c.Password)

	reloaded, err := Load(repo)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Password, "password option should no longer be readable under its plain key")

	cfg, err := repo.Config()
	require.NoError(t, err)
	s := cfg.Raw.Section(Section)
	assert.Equal(t, "hunter2", s.Option("#password"))
	assert.Equal(t, "abcd1234", s.Option("#salt"))
}
