package main

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/macsetup/internal/version"
	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/modules"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// settingKeys maps flag names to Settings keys
var settingKeys = map[string]string{
	"dry-run":       "dry_run",
	"verbose":       "verbosity",
	"module":        "module",
	"skip":          "skip",
	"adopt":         "adopt",
	"no-backup":     "no_backup",
	"config":        "config",
	"parallel":      "parallel",
	"clone-timeout": "clone_timeout",
	"report-file":   "report_file",
	"format":        "format",
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "macsetup",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(changedFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			return runProvision(cmd.Context(), cmd.OutOrStdout(), settings)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	flags.Bool("dry-run", false, MsgFlagDryRun)
	flags.String("format", "auto", MsgFlagFormat)

	local := rootCmd.Flags()
	local.String("module", "", MsgFlagModule)
	local.StringSlice("skip", nil, MsgFlagSkip)
	local.Bool("adopt", false, MsgFlagAdopt)
	local.Bool("no-backup", false, MsgFlagNoBackup)
	local.String("config", "", MsgFlagConfig)
	local.Int("parallel", 0, MsgFlagParallel)
	local.Duration("clone-timeout", 0, MsgFlagCloneTimeout)
	local.String("report-file", "", MsgFlagReportFile)

	rootCmd.AddCommand(newModulesCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// changedFlags returns only the flags the user set, keyed for LoadSettings,
// so that unset flags do not shadow environment variables.
func changedFlags(fs *pflag.FlagSet) map[string]interface{} {
	values := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		key, ok := settingKeys[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			values[key] = sv.GetSlice()
			return
		}
		values[key] = f.Value.String()
	})
	return values
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: MsgModulesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := modules.Build(modules.Deps{Settings: &config.Settings{}}).Descriptors()
			width := 0
			for _, d := range descriptors {
				if len(d.Name) > width {
					width = len(d.Name)
				}
			}
			out := cmd.OutOrStdout()
			for i, d := range descriptors {
				var notes []string
				notes = append(notes, d.Label())
				if len(d.DependsOn) > 0 {
					notes = append(notes, fmt.Sprintf(MsgModuleDependsOn, strings.Join(d.DependsOn, ", ")))
				}
				if d.Bootstrap {
					notes = append(notes, MsgModuleBootstrap)
				}
				_, _ = fmt.Fprintf(out, MsgModuleLine+"\n", i+1, width, d.Name, strings.Join(notes, " "))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, MsgVersionFormat, version.Version)
			_, _ = fmt.Fprintf(out, MsgVersionCommit, version.Commit)
			_, _ = fmt.Fprintf(out, MsgVersionBuilt, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
