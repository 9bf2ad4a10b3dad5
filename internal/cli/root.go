// Package cli implements eppctl, the operator tool for the gateway: it mints
// and revokes API tokens and runs one-off commands against a registry.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"epp-gateway/internal/platform/logger"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type globals struct {
	logLevel string
}

func (g *globals) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), g.logLevel, "text")
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "eppctl",
		Short:        "Operate the EPP gateway and talk to a registry",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")

	cmd.AddCommand(
		tokenCmd(g),
		helloCmd(g),
		checkCmd(g),
		infoCmd(g),
		pollCmd(g),
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
