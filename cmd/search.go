package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/identity"
)

var searchAsResident bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a search against the store and print the matching titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		snap, err := a.cache.Snapshot(ctx)
		if err != nil {
			return err
		}
		caller := access.GuestCaller
		if searchAsResident {
			caller = access.Caller{Role: access.Resident}
		}
		res, err := newEngine(cfg).Search(snap, strings.Join(args, " "), caller)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Remapped {
			fmt.Fprintf(out, "searched for %q instead\n", res.Search)
		}
		fmt.Fprintf(out, "%d results\n", res.TotalCount)
		for _, p := range res.Pages {
			fmt.Fprintf(out, "%s\t%s\n", p.Title, strings.Join(identity.ExtractPhones(p.HTML), ", "))
		}
		if len(res.Tags) > 0 {
			fmt.Fprintf(out, "tags: %s\n", strings.Join(res.Tags, ", "))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchAsResident, "resident", false, "search as a logged-in resident (include private pages)")
}
