package hooks

import (
	"time"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
)

// TimezoneReport is the outcome of comparing the committer's last recorded
// offset against the machine's current local offset.
type TimezoneReport struct {
	Checked     bool // false when there's no prior commit by this identity to compare against
	LastOffset  int  // minutes east of UTC, as recorded on the last matching commit
	LocalOffset int  // minutes east of UTC, as the local clock reports right now
	Changed     bool
}

// CheckTimezone finds the most recent commit authored or committed under
// email and compares its recorded UTC offset to the current local offset.
// Git records only a fixed offset, not a zone name, so this is necessarily
// a same-instant comparison rather than a "would this zone's DST rule
// differ today" one — the original's tzlocal-based comparison has no
// faithful Go equivalent without also embedding an IANA zone in every
// commit, which spec.md's wire format does not do.
func CheckTimezone(repo *gitrepo.Repository, userEmail string) (TimezoneReport, error) {
	last, ok, err := repo.FindLastCommitByEmail(userEmail)
	if err != nil {
		return TimezoneReport{}, err
	}
	if !ok {
		return TimezoneReport{Checked: false}, nil
	}

	_, localOffsetSeconds := time.Now().Zone()
	localOffset := localOffsetSeconds / 60

	return TimezoneReport{
		Checked:     true,
		LastOffset:  last.CommitterDate.Offset,
		LocalOffset: localOffset,
		Changed:     last.CommitterDate.Offset != localOffset,
	}, nil
}

// EnforceTimezone turns a changed TimezoneReport into an error when
// ignoreTimezone is false (aborts, exit 2); otherwise the change is left
// to the caller to warn about and continue past.
func EnforceTimezone(report TimezoneReport, ignoreTimezone bool) error {
	if !report.Changed || ignoreTimezone {
		return nil
	}
	return gperrors.Policy("hooks.EnforceTimezone",
		"local timezone offset differs from the last recorded commit; commit dates would leak a timezone change").
		WithDetail("exitCode", 2)
}
