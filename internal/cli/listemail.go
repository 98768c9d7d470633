package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

var (
	listEmailAll       bool
	listEmailOnlyEmail bool
)

var listEmailCmd = &cobra.Command{
	Use:   "list-email",
	Short: "Inventory the author/committer identities found in history",
	RunE:  runListEmail,
}

func init() {
	listEmailCmd.Flags().BoolVarP(&listEmailAll, "all", "a", false, "also list committer identities (default: authors only)")
	listEmailCmd.Flags().BoolVarP(&listEmailOnlyEmail, "email-only", "e", false, "print bare email addresses instead of \"Name <email>\"")
	rootCmd.AddCommand(listEmailCmd)
}

func runListEmail(cmd *cobra.Command, args []string) error {
	ctx, err := openContext()
	if err != nil {
		return err
	}

	head, err := ctx.Repo.HeadCommit()
	if err != nil {
		return err
	}
	commits, err := ctx.Repo.CommitsReachable(head.Hash)
	if err != nil {
		return err
	}

	type identity struct{ name, email string }
	seen := make(map[identity]bool)
	for _, c := range commits {
		seen[identity{c.AuthorName, c.AuthorEmail}] = true
		if listEmailAll {
			seen[identity{c.CommitterName, c.CommitterEmail}] = true
		}
	}

	lines := make([]string, 0, len(seen))
	for id := range seen {
		if listEmailOnlyEmail {
			lines = append(lines, id.email)
		} else {
			lines = append(lines, id.name+" <"+id.email+">")
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		opts.println(l)
	}
	return nil
}
