package cli

import (
	"github.com/empri-devops/git-privacy/internal/codec"
	"github.com/empri-devops/git-privacy/internal/crypto"
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/gitconfig"
	"github.com/empri-devops/git-privacy/internal/gitrepo"
	"github.com/empri-devops/git-privacy/internal/keystore"
	"github.com/empri-devops/git-privacy/internal/timestamp"
)

// context bundles the facades every subcommand needs, opened once against
// opts.GitDir.
type context struct {
	Repo  *gitrepo.Repository
	Cfg   *gitconfig.Config
	Store *keystore.Store
}

func openContext() (*context, error) {
	repo, err := gitrepo.Open(opts.GitDir)
	if err != nil {
		return nil, err
	}
	cfg, err := gitconfig.Load(repo.Raw())
	if err != nil {
		return nil, err
	}
	return &context{
		Repo:  repo,
		Cfg:   cfg,
		Store: keystore.New(repo.PrivacyDir()),
	}, nil
}

// pattern parses the configured redaction pattern and limit into a single
// timestamp.Pattern.
func (c *context) pattern() (timestamp.Pattern, error) {
	p, err := timestamp.ParsePattern(c.Cfg.Pattern)
	if err != nil {
		return timestamp.Pattern{}, err
	}
	if c.Cfg.Limit != "" {
		w, err := timestamp.ParseLimit(c.Cfg.Limit)
		if err != nil {
			return timestamp.Pattern{}, err
		}
		p.Window = w
	}
	return p, nil
}

// encryptionProvider builds the multi-key box backing message-embedding
// encode/decode: encrypt under the active key, decrypt by trying active
// then every archived key, newest-first.
func (c *context) encryptionProvider() (crypto.EncryptionProvider, error) {
	keys, err := c.Store.DecryptionKeys()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, gperrors.Key("cli.encryptionProvider", "no key configured; run `git-privacy keys --init` first")
	}
	return crypto.NewMultiKeyBox(keys)
}

// messageCodec builds the message-embedding encoder/decoder the
// redate/redate-rewrites/log paths share.
func (c *context) messageCodec() (*codec.MessageEmbeddingEncoder, error) {
	pattern, err := c.pattern()
	if err != nil {
		return nil, err
	}
	provider, err := c.encryptionProvider()
	if err != nil {
		return nil, err
	}
	return codec.NewMessageEmbeddingEncoder(pattern, provider), nil
}

// cmdUsageError builds a CLI usage error (exit 128), the Kind the spec's
// exit-code table reserves for Git-style usage/not-found failures.
func cmdUsageError(op, message string) error {
	return gperrors.Usage("cli."+op, message)
}

func toCodecCommit(c gitrepo.Commit) codec.Commit {
	return codec.Commit{
		AuthorDate:    c.AuthorDate,
		CommitterDate: c.CommitterDate,
		Message:       c.Message,
	}
}
