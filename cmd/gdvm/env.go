package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patricktcoakley/gdvm-sub001/internal/shell"
)

func newEnvCmd(a *app) *cobra.Command {
	var installRC, backup bool
	cmd := &cobra.Command{
		Use:   "env [shell]",
		Short: "Print shell code that puts the gdvm bin directory on PATH",
		Long: `Env prints shell code that adds the directory holding the godot symlink to
PATH. Without an argument the current shell is detected.

Add it to your shell startup file, or run with --install to do that for you.`,
		Example: `  eval "$(gdvm env bash)"
  gdvm env fish | source
  gdvm env --install`,
		Args: rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sh shell.Type
			if len(args) == 1 {
				parsed, err := shell.Parse(args[0])
				if err != nil {
					return &usageError{err: err}
				}
				sh = parsed
			} else {
				det := shell.NewDetector().Detect(cmd.Context())
				if !det.Shell.IsValid() {
					return &usageError{err: fmt.Errorf("could not detect your shell, pass one of %v", shell.Supported())}
				}
				a.logger.Debug("shell detected", "shell", det.Shell, "method", det.Method, "path", det.Path)
				sh = det.Shell
			}

			if !installRC {
				snippet, err := shell.Snippet(sh, a.paths.BinDir)
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, snippet)
				return nil
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			rc, err := shell.RCFilePath(home, sh)
			if err != nil {
				return err
			}
			res, err := shell.Install(a.fs, rc, sh, backup)
			if err != nil {
				return err
			}
			if res.AlreadyPresent {
				fmt.Fprintf(a.stdout, "%s already sets up gdvm\n", res.RCFile)
				return nil
			}
			fmt.Fprintf(a.stdout, "%s %q to %s\n", a.style.success("Added"), res.Line, res.RCFile)
			if res.BackupPath != "" {
				fmt.Fprintf(a.stdout, "Previous version saved to %s\n", res.BackupPath)
			}
			fmt.Fprintln(a.stdout, "Restart your shell to pick up the change.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&installRC, "install", false, "append the activation line to the shell startup file")
	cmd.Flags().BoolVar(&backup, "backup", true, "back up the startup file before changing it")
	return cmd
}
