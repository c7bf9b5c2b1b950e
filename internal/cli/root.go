package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incentive-engine/internal/config"
	"incentive-engine/internal/handler"
	"incentive-engine/internal/metrics"
)

// App holds what the commands need once configuration has been loaded.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Views   handler.Service
}

// NewRootCmd creates the top-level "incentive-engine" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "incentive-engine",
		Short:         "Partner incentive aggregation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newSummaryCmd(app),
	)

	return root
}
