package hooks

import (
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitconfig"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// ValidatePolicy checks that the repository's redaction config is
// internally consistent before a commit is allowed to proceed: mode
// "reduce" (the only supported mode) requires a non-empty, parseable
// pattern, and any configured limit must parse as a valid hour window.
// Grounded on the original's config_reader raising PatternRequired at
// GitPrivacyConfig construction time.
func ValidatePolicy(cfg *gitconfig.Config) error {
	const op = "hooks.ValidatePolicy"
	if cfg.Mode != "reduce" {
		return gperrors.Config(op, "privacy.mode must be \"reduce\", got \""+cfg.Mode+"\"")
	}
	if cfg.Pattern == "" {
		return gperrors.Config(op, "privacy.mode is \"reduce\" but privacy.pattern is unset")
	}
	if _, err := timestamp.ParsePattern(cfg.Pattern); err != nil {
		return gperrors.ConfigWrap(err, op, "privacy.pattern is invalid")
	}
	if cfg.Limit != "" {
		if _, err := timestamp.ParseLimit(cfg.Limit); err != nil {
			return gperrors.ConfigWrap(err, op, "privacy.limit is invalid")
		}
	}
	return nil
}
