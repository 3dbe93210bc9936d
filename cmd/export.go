package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/harbiz/prospect-cli/internal/store"
)

var (
	exportOut     string
	exportStatus  string
	exportCountry string
	exportCity    string
	exportOwner   string
	exportLimit   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("export requires a configured store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			WorkspaceID: cfg.Workspace.ID,
			Status:      exportStatus,
			Country:     exportCountry,
			City:        exportCity,
			OwnerID:     exportOwner,
			Limit:       exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Leads")
		if err != nil {
			return eris.Wrap(err, "add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{
			"Handle", "Business Type", "Status", "Confidence",
			"City", "Country", "Owner", "Source Query", "Copy", "Discovered",
		} {
			header.AddCell().SetString(h)
		}

		for _, l := range leads {
			row := sheet.AddRow()
			row.AddCell().SetString(l.Handle)
			row.AddCell().SetString(l.BusinessType)
			row.AddCell().SetString(string(l.Status))
			row.AddCell().SetString(strconv.Itoa(l.Confidence))
			row.AddCell().SetString(l.City)
			row.AddCell().SetString(l.Country)
			row.AddCell().SetString(l.OwnerID)
			row.AddCell().SetString(l.SourceQuery)
			row.AddCell().SetString(l.GeneratedCopy)
			row.AddCell().SetString(l.DiscoveredAt.Format("2006-01-02 15:04"))
		}

		if err := f.Save(exportOut); err != nil {
			return eris.Wrapf(err, "save %s", exportOut)
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("leads", len(leads)),
		)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOut, "out", "leads.xlsx", "output file path")
	f.StringVar(&exportStatus, "status", "", "filter by lead status")
	f.StringVar(&exportCountry, "country", "", "filter by country")
	f.StringVar(&exportCity, "city", "", "filter by city")
	f.StringVar(&exportOwner, "owner", "", "filter by owner id")
	f.IntVar(&exportLimit, "limit", 0, "max rows to export (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
