package passwd

import (
	"bytes"
	"errors"
	"strings"

	"github.com/nickbroon/vyatta-cfg-system/internal/fsutil"
)

var ErrUserNotFound = errors.New("user not found")

type Entry struct {
	Name  string
	UID   int
	GID   int
	Gecos string
	Home  string
	Shell string
}

type File struct {
	entries []Entry
}

func LoadFile(path string) (*File, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &File{}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 7 {
			// Skip lines we do not understand rather than failing the sync.
			continue
		}
		uid, err := atoi(parts[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		f.entries = append(f.entries, Entry{
			Name:  parts[0],
			UID:   uid,
			GID:   gid,
			Gecos: parts[4],
			Home:  parts[5],
			Shell: parts[6],
		})
	}
	return f, nil
}

func (f *File) Find(name string) *Entry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *File) List() []Entry {
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}
