package passwd

import (
	"bytes"
	"strings"

	"github.com/nickbroon/vyatta-cfg-system/internal/fsutil"
)

type GroupEntry struct {
	Name    string
	GID     int
	Members []string
}

type GroupFile struct {
	entries []GroupEntry
}

func LoadGroupFile(path string) (*GroupFile, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &GroupFile{}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 4 {
			continue
		}
		gid, err := atoi(parts[2], "group.gid")
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		f.entries = append(f.entries, GroupEntry{Name: parts[0], GID: gid, Members: members})
	}
	return f, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

// MembersOf returns the member set of the named groups. Groups that do
// not exist contribute nothing.
func (f *GroupFile) MembersOf(groups ...string) map[string]bool {
	out := map[string]bool{}
	for _, gname := range groups {
		g := f.Find(gname)
		if g == nil {
			continue
		}
		for _, m := range g.Members {
			if m != "" {
				out[m] = true
			}
		}
	}
	return out
}
