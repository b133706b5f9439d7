// Package cli implements the dirctl operator command tree: audit trail
// inspection and pruning, consent URL generation, and access token decoding.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		output string
		dbPath string
	)

	rootCmd := &cobra.Command{
		Use:           "dirctl",
		Short:         "Directory portal operator CLI",
		Long:          "Operator tooling for the directory portal: inspect and prune the local audit trail, build consent URLs, and decode access tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional
				cfg = &UserConfig{}
			}

			// Apply precedence: flag > env > config file > default
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("DIRCTL_OUTPUT"); v != "" {
					output = v
				} else if cfg.Output != "" {
					output = cfg.Output
				}
			}
			if !cmd.Flags().Changed("db") {
				if v := os.Getenv("DIRCTL_DB"); v != "" {
					dbPath = v
				} else if cfg.DB != "" {
					dbPath = cfg.DB
				}
			}

			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "portal_audit.sqlite", "Path to the portal's audit SQLite database")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
