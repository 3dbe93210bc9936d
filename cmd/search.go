package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harbiz/prospect-cli/internal/pipeline"
)

var searchReq pipeline.Request

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a single prospect discovery search",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, searchReq)
		if err != nil {
			return eris.Wrap(err, "search run")
		}

		zap.L().Info("search complete",
			zap.String("run_id", result.RunID),
			zap.Int("candidates", len(result.Ranked)),
			zap.Int("selected", len(result.Selected)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchReq.Location, "location", "", "free-form location, e.g. \"CDMX, Mexico\" or \"online\"")
	f.StringVar(&searchReq.City, "city", "", "explicit city override")
	f.StringVar(&searchReq.Country, "country", "", "explicit country override")
	f.StringVar(&searchReq.Keywords, "keywords", "", "search keywords (required)")
	f.StringVar(&searchReq.ProfileType, "type", "", "profile type: PT or Center (required)")
	f.IntVar(&searchReq.Count, "count", 0, "max leads to return (default 20, max 100)")
	f.StringVar(&searchReq.Actor, "actor", "", "requesting SDR email, used for copy signatures")
	f.StringVar(&searchReq.ActorID, "actor-id", "", "actor id for rate limiting (defaults to --actor)")
	_ = searchCmd.MarkFlagRequired("keywords")
	_ = searchCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(searchCmd)
}
