package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nickbroon/vyatta-cfg-system/internal/config"
	"github.com/nickbroon/vyatta-cfg-system/internal/configd"
	"github.com/nickbroon/vyatta-cfg-system/internal/login"
	"github.com/nickbroon/vyatta-cfg-system/internal/passwd"
	"github.com/nickbroon/vyatta-cfg-system/internal/usercmd"
)

func main() {
	root := &cobra.Command{
		Use:           "vyatta-login-sync",
		Short:         "Synchronize configured login users with the OS account database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().String("config", config.DefaultPath, "tool configuration file")
	root.Flags().String("socket", "", "override the configd socket path")
	root.Flags().Bool("verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("login sync failed")
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	socket := cfg.ConfigdSocket
	if s, _ := cmd.Flags().GetString("socket"); s != "" {
		socket = s
	} else if s := os.Getenv("VYATTA_CONFIGD_SOCKET"); s != "" {
		socket = s
	}

	client, err := configd.Dial(socket)
	if err != nil {
		return err
	}
	defer client.Close()

	sync := login.New(client, usercmd.New())
	sync.DB = &passwd.DB{PasswdPath: cfg.PasswdFile, GroupPath: cfg.GroupFile}
	sync.LevelFile = cfg.LevelFile
	sync.Shell = cfg.Shell
	sync.LoginGroups = cfg.LoginGroups

	return sync.Update()
}
