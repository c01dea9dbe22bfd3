package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/patricktcoakley/gdvm-sub001/internal/install"
	"github.com/patricktcoakley/gdvm-sub001/internal/logging"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
	"github.com/patricktcoakley/gdvm-sub001/internal/service"
)

func newInstallCmd(a *app) *cobra.Command {
	var setDefault, refresh bool
	cmd := &cobra.Command{
		Use:   "install [query...]",
		Short: "Download and install a Godot release",
		Long: `Install resolves the query against the published releases, downloads the
archive for this platform, verifies its SHA-512 checksum and extracts it.
Without a query the latest stable release is installed. The first release
installed becomes the current one.`,
		Example: `  gdvm install
  gdvm install 4.2
  gdvm install 4.3 rc mono --default`,
		Aliases: []string{"i"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.buildStack(ctx)
			if err != nil {
				return err
			}

			r := newRenderer(a.stderr, logging.IsTerminal(a.stderr), a.style)
			res, err := st.versions.Install(ctx, service.InstallRequest{
				Query:   args,
				Default: setDefault,
				Refresh: refresh,
				Options: install.Options{Observer: r},
			})
			r.Finish()
			if err != nil {
				return err
			}
			printInstallResult(a.stdout, a.style, res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&setDefault, "default", "d", false, "make the release current even if another one is")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached release list")
	return cmd
}

func printInstallResult(w io.Writer, st style, res *service.InstallResult) {
	name := res.Release.NameWithRuntime()
	if res.Outcome.Kind == install.AlreadyInstalled {
		fmt.Fprintf(w, "%s is already installed\n", name)
		return
	}
	fmt.Fprintf(w, "%s %s\n", st.success("Installed"), name)
	if res.Outcome.Activated {
		fmt.Fprintf(w, "Now using %s\n", st.current(name))
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List installed releases",
		Aliases: []string{"ls"},
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.buildStack(cmd.Context())
			if err != nil {
				return err
			}
			rels, cur, err := st.versions.Installed()
			if err != nil {
				return err
			}
			if len(rels) == 0 {
				fmt.Fprintln(a.stdout, "No releases installed.")
				fmt.Fprintln(a.stdout, "Run `gdvm search` to see what is available, then `gdvm install <version>`.")
				return nil
			}
			for _, line := range formatInstalled(rels, cur, a.style) {
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
}

// formatInstalled renders one line per release, marking the current one.
func formatInstalled(rels []release.Release, cur *release.Release, st style) []string {
	lines := make([]string, len(rels))
	for i, r := range rels {
		if cur != nil && r.Equal(*cur) {
			lines[i] = "* " + st.current(r.NameWithRuntime())
			continue
		}
		lines[i] = "  " + r.NameWithRuntime()
	}
	return lines
}

func newSearchCmd(a *app) *cobra.Command {
	var refresh bool
	var limit int
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "List published releases matching a query",
		Long: `Search lists published releases, newest first. Mono builds are only listed
when the query asks for them.`,
		Example: `  gdvm search 4
  gdvm search 4.3 beta
  gdvm search mono --refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.buildStack(cmd.Context())
			if err != nil {
				return err
			}
			rels, err := st.versions.Search(cmd.Context(), args, refresh)
			if err != nil {
				return err
			}
			if len(rels) == 0 {
				fmt.Fprintln(a.stdout, "No releases match.")
				return nil
			}
			installed, _ := st.installer.Installed()
			for i, r := range rels {
				if limit > 0 && i >= limit {
					fmt.Fprintf(a.stdout, "%s\n", a.style.dim(fmt.Sprintf("... %d more", len(rels)-limit)))
					break
				}
				line := r.NameWithRuntime()
				if containsRelease(installed, r) {
					line += " " + a.style.success("(installed)")
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached release list")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n releases (0 shows all)")
	return cmd
}

func containsRelease(rels []release.Release, r release.Release) bool {
	for _, x := range rels {
		if x.Equal(r) {
			return true
		}
	}
	return false
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set [query...]",
		Short:   "Make an installed release current",
		Aliases: []string{"use"},
		Example: `  gdvm set 4.2
  gdvm set 3 mono`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.buildStack(cmd.Context())
			if err != nil {
				return err
			}
			rel, err := st.versions.Set(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Now using %s\n", a.style.current(rel.NameWithRuntime()))
			return nil
		},
	}
}

func newWhichCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "which",
		Short: "Show the current release and its executable",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.buildStack(cmd.Context())
			if err != nil {
				return err
			}
			info, rel, err := st.versions.Which()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\n%s\n", a.style.current(rel.NameWithRuntime()), info.Target)
			if info.MacAppSymlinkPath != "" {
				fmt.Fprintf(a.stdout, "%s\n", a.style.dim(info.MacAppSymlinkPath))
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <query...>",
		Short:   "Delete an installed release",
		Aliases: []string{"rm", "uninstall"},
		Args:    minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.buildStack(cmd.Context())
			if err != nil {
				return err
			}
			rel, err := st.versions.Remove(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removed %s\n", rel.NameWithRuntime())
			return nil
		},
	}
}
