package featurecfg

// Package featurecfg is a thin wrapper over INI files that hold
// per-feature configuration. Every set-up file carries a Defaults
// section; callers fall back to it when a key has no section value.

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/nickbroon/vyatta-cfg-system/internal/fsutil"
)

// DefaultsSection always exists in a set-up config file.
const DefaultsSection = "Defaults"

var ErrNotFound = errors.New("value not found")

type Store struct{}

func New() *Store {
	return &Store{}
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		// Indented continuation lines are part of the file format.
		AllowPythonMultilineValues: true,
	}
}

func (s *Store) load(path string) (*ini.File, error) {
	f, err := ini.LoadSources(loadOptions(), path)
	if err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}
	return f, nil
}

func (s *Store) save(path string, f *ini.File) error {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize config file %s: %w", path, err)
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Setup creates the file if needed and guarantees the Defaults
// section exists.
func (s *Store) Setup(path string) error {
	if err := fsutil.EnsureFile(path, 0644); err != nil {
		return fmt.Errorf("create config file %s: %w", path, err)
	}
	f, err := s.load(path)
	if err != nil {
		return err
	}
	if _, err := f.GetSection(DefaultsSection); err == nil {
		return nil
	}
	if _, err := f.NewSection(DefaultsSection); err != nil {
		return fmt.Errorf("create %s section in %s: %w", DefaultsSection, path, err)
	}
	return s.save(path, f)
}

func (s *Store) Set(path, section, key, value string) error {
	f, err := s.load(path)
	if err != nil {
		return err
	}
	f.Section(section).Key(key).SetValue(value)
	return s.save(path, f)
}

func (s *Store) Delete(path, section, key string) error {
	f, err := s.load(path)
	if err != nil {
		return err
	}
	sec, err := f.GetSection(section)
	if err != nil {
		return nil
	}
	if !sec.HasKey(key) {
		return nil
	}
	sec.DeleteKey(key)
	return s.save(path, f)
}

// Get returns the value of key in section, or ErrNotFound when the
// section or key is absent.
func (s *Store) Get(path, section, key string) (string, error) {
	f, err := s.load(path)
	if err != nil {
		return "", err
	}
	return GetValue(f, section, key)
}

// GetDefault reads key from the Defaults section.
func (s *Store) GetDefault(path, key string) (string, error) {
	return s.Get(path, DefaultsSection, key)
}

// GetFile parses a config file once for repeated GetValue reads.
func (s *Store) GetFile(path string) (*ini.File, error) {
	return s.load(path)
}

// GetValue reads from an already parsed file.
func GetValue(f *ini.File, section, key string) (string, error) {
	sec, err := f.GetSection(section)
	if err != nil {
		return "", ErrNotFound
	}
	if !sec.HasKey(key) {
		return "", ErrNotFound
	}
	return sec.Key(key).String(), nil
}
