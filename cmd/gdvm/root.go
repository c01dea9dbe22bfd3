package main

import (
	"github.com/spf13/cobra"
)

// Annotations controlling setup.
const (
	annotationSkipSetup = "gdvm/skip-setup"
	// annotationTolerant lets a command run with an invalid config file.
	annotationTolerant = "gdvm/tolerant"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gdvm",
		Short: "Godot version manager",
		Long: `gdvm installs Godot engine releases side by side and switches between them.

Releases are named like 4.2-stable, 4.3-rc1 or 3.5.3-stable-mono. Queries
accept partial versions and keywords, for example:

  gdvm install 4.2          latest 4.2.x stable
  gdvm install 4.3 beta     latest 4.3 beta
  gdvm install latest mono  latest stable Mono build`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationSkipSetup] != "" {
				return nil
			}
			return a.setup(cmd.Annotations[annotationTolerant] != "")
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "print debug logs")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInstallCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newSetCmd(a),
		newWhichCmd(a),
		newRemoveCmd(a),
		newEnvCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// noArgs is cobra.NoArgs reported as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
