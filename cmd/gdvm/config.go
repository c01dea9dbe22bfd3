package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patricktcoakley/gdvm-sub001/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write gdvm.ini",
		Long: fmt.Sprintf(`Read and write gdvm.ini.

Keys: %s
Each key can be overridden by an environment variable, for example
GDVM_GITHUB_TOKEN.`, strings.Join(config.Keys, ", ")),
		Annotations: map[string]string{annotationTolerant: "true"},
	}

	get := &cobra.Command{
		Use:         "get <key>",
		Short:       "Print the value of a key",
		Args:        rangeArgs(1, 1),
		Annotations: map[string]string{annotationTolerant: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgErr != nil {
				return a.cfgErr
			}
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return &usageError{err: err}
			}
			fmt.Fprintln(a.stdout, v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Set a key, or remove it when no value is given",
		Example: `  gdvm config set github.token ghp_xxx
  gdvm config set log.level debug
  gdvm config set github.token`,
		Args:        rangeArgs(1, 2),
		Annotations: map[string]string{annotationTolerant: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			if err := config.Set(a.fs, a.paths.ConfigFile, args[0], value); err != nil {
				return err
			}
			a.logger.Debug("config updated", "key", args[0], "path", a.paths.ConfigFile)
			return nil
		},
	}

	list := &cobra.Command{
		Use:         "list",
		Short:       "Print every key and its value",
		Args:        noArgs,
		Annotations: map[string]string{annotationTolerant: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgErr != nil {
				return a.cfgErr
			}
			for _, key := range config.Keys {
				v, _ := a.cfg.Get(key)
				if key == config.KeyGitHubToken && v != "" {
					v = "(set)"
				}
				fmt.Fprintf(a.stdout, "%s = %s\n", key, v)
			}
			return nil
		},
	}

	path := &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Args:        noArgs,
		Annotations: map[string]string{annotationTolerant: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, a.paths.ConfigFile)
			return nil
		},
	}

	cmd.AddCommand(get, set, list, path)
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the gdvm version",
		Args:        noArgs,
		Annotations: map[string]string{annotationSkipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "gdvm %s\n", Version)
		},
	}
}
