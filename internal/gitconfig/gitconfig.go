// Package gitconfig implements the config surface (C7): a typed view over
// the repository's own "privacy" config section. Grounded on
// original_source/gitprivacy/gitprivacy.py's GitPrivacyConfig class
// (config_reader/config_writer/comment_out_password_options), backed here
// by go-git's config.Config instead of GitPython's config reader/writer.
package gitconfig

import (
	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

// Section is the Git config section git-privacy reads and writes.
const Section = "privacy"

// Config is a typed snapshot of the "privacy" section plus the means to
// persist changes back to the repository's own config file.
type Config struct {
	Mode           string
	Pattern        string
	Limit          string
	IgnoreTimezone bool
	Replacements   bool
	Password       string
	Salt           string

	repo *git.Repository
}

// Load reads the current "privacy" section, applying spec.md's documented
// defaults for any option left unset.
func Load(repo *git.Repository) (*Config, error) {
	const op = "gitconfig.Load"
	cfg, err := repo.Config()
	if err != nil {
		return nil, gperrors.GitWrap(err, op, "failed to read git config")
	}

	s := cfg.Raw.Section(Section)
	c := &Config{
		Mode:           valueOr(s, "mode", "reduce"),
		Pattern:        valueOr(s, "pattern", ""),
		Limit:          valueOr(s, "limit", ""),
		IgnoreTimezone: boolOr(s, "ignoreTimezone", true),
		Replacements:   boolOr(s, "replacements", false),
		Password:       valueOr(s, "password", ""),
		Salt:           valueOr(s, "salt", ""),
		repo:           repo,
	}
	return c, nil
}

func valueOr(s *gitcfg.Section, key, fallback string) string {
	if s == nil {
		return fallback
	}
	if !s.HasOption(key) {
		return fallback
	}
	return s.Option(key)
}

func boolOr(s *gitcfg.Section, key string, fallback bool) bool {
	if s == nil || !s.HasOption(key) {
		return fallback
	}
	v := s.Option(key)
	return v == "true" || v == "1" || v == "yes"
}

// Write persists the given key/value pairs into the repository's own
// (non-global) config file, overwriting any prior value for each key.
func (c *Config) Write(values map[string]string) error {
	const op = "gitconfig.Write"
	cfg, err := c.repo.Config()
	if err != nil {
		return gperrors.GitWrap(err, op, "failed to read git config")
	}
	s := cfg.Raw.Section(Section)
	for k, v := range values {
		s.SetOption(k, v)
	}
	if err := c.repo.Storer.SetConfig(cfg); err != nil {
		return gperrors.GitWrap(err, op, "failed to write git config")
	}
	return nil
}

// CommentOutPasswordOptions renames "password"/"salt" to "#password"/
// "#salt" once their values have been migrated into the key store,
// leaving them around (as comments) for audit purposes rather than
// silently discarding them.
func (c *Config) CommentOutPasswordOptions() error {
	const op = "gitconfig.CommentOutPasswordOptions"
	cfg, err := c.repo.Config()
	if err != nil {
		return gperrors.GitWrap(err, op, "failed to read git config")
	}
	s := cfg.Raw.Section(Section)

	if c.Password != "" {
		s.RemoveOption("password")
		s.SetOption("#password", c.Password)
		c.Password = ""
	}
	if c.Salt != "" {
		s.RemoveOption("salt")
		s.SetOption("#salt", c.Salt)
		c.Salt = ""
	}

	if err := c.repo.Storer.SetConfig(cfg); err != nil {
		return gperrors.GitWrap(err, op, "failed to write git config")
	}
	return nil
}
