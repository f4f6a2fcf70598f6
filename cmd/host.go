package cmd

import (
	"log/slog"

	"actionlog/internal/host"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	simulateAddr      string
	simulateResources []string
)

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateAddr, "addr", "127.0.0.1:7312", "address to listen on")
	simulateCmd.Flags().StringSliceVar(&simulateResources, "resource", []string{"Background"}, "resources present at startup")
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Work with the automation host",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a local stand-in for the automation host",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logger.Enabled(cmd.Context(), slog.LevelDebug) {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		sim := host.NewSimulator(logger, simulateResources...)
		return sim.Run(cmd.Context(), simulateAddr)
	},
}
