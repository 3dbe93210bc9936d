package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/harbiz/prospect-cli/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List stored leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("leads requires a configured store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		country, _ := cmd.Flags().GetString("country")
		city, _ := cmd.Flags().GetString("city")
		owner, _ := cmd.Flags().GetString("owner")
		limit, _ := cmd.Flags().GetInt("limit")

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			WorkspaceID: cfg.Workspace.ID,
			Status:      status,
			Country:     country,
			City:        city,
			OwnerID:     owner,
			Limit:       limit,
		})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HANDLE\tTYPE\tSTATUS\tCONF\tCITY\tCOUNTRY\tDISCOVERED")
		for _, l := range leads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				l.Handle, l.BusinessType, l.Status, l.Confidence,
				l.City, l.Country, l.DiscoveredAt.Format("2006-01-02"),
			)
		}
		return w.Flush()
	},
}

func init() {
	f := leadsCmd.Flags()
	f.String("status", "", "filter by lead status")
	f.String("country", "", "filter by country")
	f.String("city", "", "filter by city")
	f.String("owner", "", "filter by owner id")
	f.Int("limit", 50, "max rows to show")
	rootCmd.AddCommand(leadsCmd)
}
