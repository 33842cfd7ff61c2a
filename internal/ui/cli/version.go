package cli

import (
	"runtime/debug"

	"pyindex/internal/core/config"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version and Go version used to build pyindex.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
				return
			}

			cmd.Println("pyindex version\t", info.Main.Version)
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}

func newInitCmd(s *session) *cobra.Command {
	var withDB bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a config file with every default spelled out",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := s.opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			cfg := config.Default()
			cfg.DB.Enabled = withDB
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDB, "db", false, "enable the index store in the written config")
	return cmd
}
