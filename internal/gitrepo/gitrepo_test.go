package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empri-devops/git-privacy/internal/timestamp"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string, when time.Time) plumbing.Hash {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
	h, err := wt.Commit("msg for "+name, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return h
}

func initRepo(t *testing.T) (dir string, repo *git.Repository) {
	t.Helper()
	dir = t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func TestOpen_ResolvesWorkdirAndGitDir(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "one", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, r.WorkDir())
	assert.Equal(t, filepath.Join(dir, ".git"), r.GitDir())
}

func TestIsClean(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "one", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)

	clean, err := r.IsClean()
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("dirty"), 0o600))
	clean, err = r.IsClean()
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestHeadCommit(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	when := time.Date(2018, time.December, 18, 14, 42, 13, 0, time.UTC)
	h := commitFile(t, repo, dir, "a.txt", "one", when)

	r, err := Open(dir)
	require.NoError(t, err)

	head, err := r.HeadCommit()
	require.NoError(t, err)
	assert.Equal(t, h, head.Hash)
	assert.Equal(t, int64(when.Unix()), head.AuthorDate.Unix())
}

func TestAmendHead_ChangesDatesPreservesTree(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	when := time.Date(2018, time.December, 18, 14, 42, 13, 0, time.UTC)
	oldHash := commitFile(t, repo, dir, "a.txt", "one", when)

	r, err := Open(dir)
	require.NoError(t, err)

	newWhen := timestamp.New(time.Date(2018, time.December, 18, 0, 0, 0, 0, time.UTC))
	newHash, err := r.AmendHead(Amendment{AuthorDate: newWhen, CommitterDate: newWhen})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, newHash)

	head, err := r.HeadCommit()
	require.NoError(t, err)
	assert.Equal(t, newHash, head.Hash)
	assert.True(t, head.AuthorDate.Equal(newWhen))
	assert.Equal(t, "msg for a.txt", head.Message, "amend without a new message leaves it unchanged")
}

func TestAmendHead_NewMessage(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	when := time.Date(2018, time.December, 18, 14, 42, 13, 0, time.UTC)
	commitFile(t, repo, dir, "a.txt", "one", when)

	r, err := Open(dir)
	require.NoError(t, err)

	ts := timestamp.New(when)
	_, err = r.AmendHead(Amendment{AuthorDate: ts, CommitterDate: ts, Message: "rewritten message"})
	require.NoError(t, err)

	head, err := r.HeadCommit()
	require.NoError(t, err)
	assert.Equal(t, "rewritten message", head.Message)
}

func TestCommitsBetween_AncestorToDescendantOrder(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	base := time.Date(2018, time.December, 18, 0, 0, 0, 0, time.UTC)
	h1 := commitFile(t, repo, dir, "a.txt", "one", base)
	h2 := commitFile(t, repo, dir, "b.txt", "two", base.Add(time.Hour))
	h3 := commitFile(t, repo, dir, "c.txt", "three", base.Add(2*time.Hour))

	r, err := Open(dir)
	require.NoError(t, err)

	commits, err := r.CommitsBetween(h1, h3)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, h2, commits[0].Hash)
	assert.Equal(t, h3, commits[1].Hash)
}

func TestCommitsBetween_ZeroHashMeansEverythingReachable(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	base := time.Date(2018, time.December, 18, 0, 0, 0, 0, time.UTC)
	h1 := commitFile(t, repo, dir, "a.txt", "one", base)
	h2 := commitFile(t, repo, dir, "b.txt", "two", base.Add(time.Hour))

	r, err := Open(dir)
	require.NoError(t, err)

	commits, err := r.CommitsBetween(plumbing.ZeroHash, h2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, h1, commits[0].Hash)
	assert.Equal(t, h2, commits[1].Hash)
}

func TestRewriteRange_RemapsParentsAndFastForwardsRef(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	base := time.Date(2018, time.December, 18, 0, 0, 0, 0, time.UTC)
	h1 := commitFile(t, repo, dir, "a.txt", "one", base)
	h2 := commitFile(t, repo, dir, "b.txt", "two", base.Add(time.Hour))

	r, err := Open(dir)
	require.NoError(t, err)

	commits, err := r.CommitsBetween(plumbing.ZeroHash, h2)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	newDate := timestamp.New(time.Date(2018, time.December, 18, 0, 0, 0, 0, time.UTC))
	rewrites := map[plumbing.Hash]RangeRewrite{
		commits[0].Hash: {AuthorDate: newDate, CommitterDate: newDate},
		commits[1].Hash: {AuthorDate: newDate, CommitterDate: newDate},
	}

	headRef, err := repo.Head()
	require.NoError(t, err)

	oldToNew, err := r.RewriteRange(commits, rewrites, []plumbing.ReferenceName{headRef.Name()}, false)
	require.NoError(t, err)
	require.Len(t, oldToNew, 2)

	newHead, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, oldToNew[h2], newHead.Hash())

	newTip, err := repo.CommitObject(newHead.Hash())
	require.NoError(t, err)
	require.Len(t, newTip.ParentHashes, 1)
	assert.Equal(t, oldToNew[h1], newTip.ParentHashes[0], "second commit's parent must be remapped to the rewritten first commit")
	assert.NotEqual(t, h1, newTip.ParentHashes[0])
}

func TestWriteReplacementRef_UpdateOnlyExistingSkipsWhenAbsent(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	h1 := commitFile(t, repo, dir, "a.txt", "one", time.Now())
	h2 := commitFile(t, repo, dir, "b.txt", "two", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, r.WriteReplacementRef(h1, h2, false))
	_, err = repo.Reference(plumbing.ReferenceName("refs/replace/"+h1.String()), false)
	assert.Error(t, err, "should not have been created since createIfMissing was false")

	require.NoError(t, r.WriteReplacementRef(h1, h2, true))
	ref, err := repo.Reference(plumbing.ReferenceName("refs/replace/"+h1.String()), false)
	require.NoError(t, err)
	assert.Equal(t, h2, ref.Hash())

	require.NoError(t, r.WriteReplacementRef(h1, h1, false))
	ref, err = repo.Reference(plumbing.ReferenceName("refs/replace/"+h1.String()), false)
	require.NoError(t, err)
	assert.Equal(t, h1, ref.Hash(), "existing entry should be updatable even with createIfMissing false")
}

func TestCherryPickInProgress(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "one", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)
	assert.False(t, r.CherryPickInProgress())

	require.NoError(t, os.WriteFile(filepath.Join(r.GitDir(), "CHERRY_PICK_HEAD"), []byte("deadbeef\n"), 0o600))
	assert.True(t, r.CherryPickInProgress())
}

func TestFindLastCommitByEmail(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "one", time.Now())
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("two"), 0o600))
	_, err = wt.Add("b.txt")
	require.NoError(t, err)
	sig := &object.Signature{Name: "Other", Email: "other@example.com", When: time.Now()}
	h2, err := wt.Commit("second", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	r, err := Open(dir)
	require.NoError(t, err)

	c, ok, err := r.FindLastCommitByEmail("other@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h2, c.Hash)

	_, ok, err = r.FindLastCommitByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouchesPaths(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "one", time.Now())
	h2 := commitFile(t, repo, dir, "b.txt", "two", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)

	ok, err := r.TouchesPaths(h2, []string{"b.txt"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.TouchesPaths(h2, []string{"a.txt"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.TouchesPaths(h2, nil)
	require.NoError(t, err)
	assert.True(t, ok, "no filter configured always matches")
}

func TestIsAncestorOf(t *testing.T) {
	t.Parallel()
	dir, repo := initRepo(t)
	h1 := commitFile(t, repo, dir, "a.txt", "one", time.Now())
	h2 := commitFile(t, repo, dir, "b.txt", "two", time.Now())

	r, err := Open(dir)
	require.NoError(t, err)

	ok, err := r.IsAncestorOf(h1, h2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAncestorOf(h2, h1)
	require.NoError(t, err)
	assert.False(t, ok)
}
