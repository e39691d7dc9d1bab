package login

import (
	"bytes"
	"os"
	"strings"
)

// DefaultLevelFile maps privilege levels to supplementary OS groups,
// one "level:group1,group2" line per level.
const DefaultLevelFile = "/opt/vyatta/etc/level"

func LoadLevels(path string) (map[string][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	levels := map[string][]string{}
	for _, line := range strings.Split(string(bytes.TrimRight(b, "\n")), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		var groups []string
		for _, g := range strings.Split(rest, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				groups = append(groups, g)
			}
		}
		levels[strings.TrimSpace(name)] = groups
	}
	return levels, nil
}
