package cli

import (
	"context"

	"driveflat/internal/app"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "driveflat",
	Short: "Sync a Drive folder tree into one flat Photos album",
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	for _, name := range app.CommandList() {
		command := app.MustResolveCommand(name)
		subcmd := &cobra.Command{
			Use:   command.Name(),
			Short: command.Desc(),
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				if err := command.ParseArgs(args); err != nil {
					return err
				}
				if err := command.PreRun(ctx); err != nil {
					return err
				}
				if err := command.Run(ctx); err != nil {
					return err
				}
				return command.PostRun(ctx)
			},
		}
		command.Init(subcmd.Flags())
		rootCmd.AddCommand(subcmd)
	}
}
