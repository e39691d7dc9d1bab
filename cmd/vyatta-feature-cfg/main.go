package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nickbroon/vyatta-cfg-system/internal/featurecfg"
)

// Shell-facing CRUD over per-feature INI config files. Scripts call
// this once per operation, so every subcommand re-opens the file.

func main() {
	store := featurecfg.New()

	root := &cobra.Command{
		Use:           "vyatta-feature-cfg",
		Short:         "Read and write per-feature configuration files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "setup <file>",
		Short: "Create a config file with its Defaults section",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return store.Setup(args[0])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "set <file> <section> <key> <value>",
		Short: "Set a key in a section",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			return store.Set(args[0], args[1], args[2], args[3])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "delete <file> <section> <key>",
		Short: "Delete a key from a section",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return store.Delete(args[0], args[1], args[2])
		},
	})

	get := &cobra.Command{
		Use:   "get <file> <section> <key>",
		Short: "Print a key's value, falling back to the Defaults section",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := store.Get(args[0], args[1], args[2])
			if errors.Is(err, featurecfg.ErrNotFound) {
				v, err = store.GetDefault(args[0], args[2])
			}
			if errors.Is(err, featurecfg.ErrNotFound) {
				return err
			}
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}
	root.AddCommand(get)

	root.AddCommand(&cobra.Command{
		Use:   "get-default <file> <key>",
		Short: "Print a key's value from the Defaults section",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := store.GetDefault(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
