package hooks

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/fileutil"
)

// RewriteLogName is the file post-rewrite appends to, relative to the
// repository's git directory's privacy subdirectory.
const RewriteLogName = "rewrites"

// RewriteEntry is one line of the rewrite log: old and new commit hashes,
// plus whatever extra data git passed after them (post-rewrite --amend
// appends none, rebase appends nothing either — extra exists so the
// format can grow without invalidating old logs).
type RewriteEntry struct {
	Old   string
	New   string
	Extra string
}

// ParseRewriteLine parses one "<old> <new>[ <extra>]" line, mirroring the
// original's `line.split(" ", maxsplit=2)`.
func ParseRewriteLine(line string) (RewriteEntry, error) {
	fields := strings.SplitN(strings.TrimRight(line, "\n"), " ", 3)
	if len(fields) < 2 {
		return RewriteEntry{}, gperrors.Hook("hooks.ParseRewriteLine", fmt.Sprintf("malformed rewrite-log line: %q", line))
	}
	e := RewriteEntry{Old: fields[0], New: fields[1]}
	if len(fields) == 3 {
		e.Extra = fields[2]
	}
	return e, nil
}

// AppendRewrite records one git-reported rewrite (old sha, new sha) to the
// log, creating it if absent. Called from the post-rewrite hook once per
// line git feeds it on stdin.
func AppendRewrite(logPath string, e RewriteEntry) error {
	line := e.Old + " " + e.New
	if e.Extra != "" {
		line += " " + e.Extra
	}
	if err := fileutil.AppendLine(logPath, line); err != nil {
		return gperrors.HookWrap(err, "hooks.AppendRewrite", "failed to append rewrite-log entry")
	}
	return nil
}

// ReadRewriteLog reads every entry from the log. A missing file is not an
// error: it simply means no rewrite has ever been recorded.
func ReadRewriteLog(logPath string) ([]RewriteEntry, error) {
	const op = "hooks.ReadRewriteLog"
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gperrors.HookWrap(err, op, "failed to open rewrite log")
	}
	defer f.Close()

	var entries []RewriteEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseRewriteLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, gperrors.HookWrap(err, op, "failed to read rewrite log")
	}
	return entries, nil
}

// ClearRewriteLog truncates the log after its pending entries have been
// redated, so the next post-rewrite starts a fresh batch.
func ClearRewriteLog(logPath string) error {
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return gperrors.HookWrap(err, "hooks.ClearRewriteLog", "failed to clear rewrite log")
	}
	return nil
}

// PendingNews returns the "new" hashes that never also appear as an "old"
// hash in a later entry — the tips `redate-rewrites` must still redate.
// A rewrite chain old1->new1, new1->new2 collapses to just new2; an entry
// whose new hash was itself later superseded is not a pending tip.
func PendingNews(entries []RewriteEntry) []string {
	olds := make(map[string]bool, len(entries))
	for _, e := range entries {
		olds[e.Old] = true
	}

	seen := make(map[string]bool, len(entries))
	var pending []string
	for _, e := range entries {
		if olds[e.New] || seen[e.New] {
			continue
		}
		seen[e.New] = true
		pending = append(pending, e.New)
	}
	return pending
}
