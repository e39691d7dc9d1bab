package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the tool's own settings: where the config daemon
// listens and which system files the sync consults. All fields have
// working defaults; the file only exists to override them on unusual
// installs and in tests.
type Config struct {
	ConfigdSocket string   `yaml:"configd_socket"`
	LevelFile     string   `yaml:"level_file"`
	Shell         string   `yaml:"shell"`
	LoginGroups   []string `yaml:"login_groups"`
	PasswdFile    string   `yaml:"passwd_file"`
	GroupFile     string   `yaml:"group_file"`
}

// DefaultPath is consulted when no --config flag is given.
const DefaultPath = "/opt/vyatta/etc/login-sync.yaml"

func Default() Config {
	return Config{
		ConfigdSocket: "/run/vyatta/configd/main.sock",
		LevelFile:     "/opt/vyatta/etc/level",
		Shell:         "/bin/vbash",
		LoginGroups:   []string{"vyattacfg", "vyattaop"},
		PasswdFile:    "/etc/passwd",
		GroupFile:     "/etc/group",
	}
}

// Load reads the config file at path, filling unset fields from the
// defaults. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.ConfigdSocket != "" {
		c.ConfigdSocket = o.ConfigdSocket
	}
	if o.LevelFile != "" {
		c.LevelFile = o.LevelFile
	}
	if o.Shell != "" {
		c.Shell = o.Shell
	}
	if len(o.LoginGroups) > 0 {
		c.LoginGroups = o.LoginGroups
	}
	if o.PasswdFile != "" {
		c.PasswdFile = o.PasswdFile
	}
	if o.GroupFile != "" {
		c.GroupFile = o.GroupFile
	}
}
