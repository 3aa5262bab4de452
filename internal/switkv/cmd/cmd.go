package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/innovationmech/switkv/internal/switkv/cmd/del"
	"github.com/innovationmech/switkv/internal/switkv/cmd/get"
	"github.com/innovationmech/switkv/internal/switkv/cmd/list"
	"github.com/innovationmech/switkv/internal/switkv/cmd/lock"
	"github.com/innovationmech/switkv/internal/switkv/cmd/put"
	"github.com/innovationmech/switkv/internal/switkv/cmd/release"
	"github.com/innovationmech/switkv/internal/switkv/cmd/service"
	"github.com/innovationmech/switkv/internal/switkv/cmd/session"
	"github.com/innovationmech/switkv/internal/switkv/cmd/snapshot"
	"github.com/innovationmech/switkv/internal/switkv/cmd/status"
	"github.com/innovationmech/switkv/internal/switkv/cmd/version"
	"github.com/innovationmech/switkv/internal/switkv/cmd/watch"
	"github.com/innovationmech/switkv/internal/switkv/config"
	"github.com/innovationmech/switkv/pkg/logger"
)

func NewRootSwitKVCommand() *cobra.Command {
	var verbose bool

	cmds := &cobra.Command{
		Use:   "switkv",
		Short: "switkv is a command-line client for the coordination service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			level := cfg.Log.Level
			if verbose {
				level = "debug"
			}
			if err := logger.SetLevel(level); err != nil {
				return err
			}

			if viper.GetBool("output.noColor") {
				color.NoColor = true
			}
			return nil
		},
	}

	flags := cmds.PersistentFlags()
	flags.StringP("addr", "a", "", "agent address as host:port")
	flags.String("token", "", "ACL token sent with every request")
	flags.String("datacenter", "", "datacenter to query")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag("agent.address", flags.Lookup("addr"))
	_ = viper.BindPFlag("agent.token", flags.Lookup("token"))
	_ = viper.BindPFlag("agent.datacenter", flags.Lookup("datacenter"))
	_ = viper.BindPFlag("output.noColor", flags.Lookup("no-color"))

	cmds.AddCommand(get.NewGetCmd())
	cmds.AddCommand(put.NewPutCmd())
	cmds.AddCommand(del.NewDeleteCmd())
	cmds.AddCommand(list.NewListCmd())
	cmds.AddCommand(lock.NewLockCmd())
	cmds.AddCommand(release.NewReleaseCmd())
	cmds.AddCommand(session.NewSessionCmd())
	cmds.AddCommand(service.NewServiceCmd())
	cmds.AddCommand(snapshot.NewSnapshotCmd())
	cmds.AddCommand(status.NewStatusCmd())
	cmds.AddCommand(watch.NewWatchCmd())
	cmds.AddCommand(version.NewVersionCmd())
	return cmds
}
