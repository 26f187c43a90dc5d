package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/vburojevic/logsieve/internal/filter"
)

// filterFlags are the ad-hoc filter options shared by scan/tail/ui.
type filterFlags struct {
	Contains      []string `short:"c" help:"Substring the line must contain (repeatable, all must match)"`
	Pattern       string   `short:"p" help:"Regex the line must match"`
	CaseSensitive bool     `help:"Match substrings and patterns case-sensitively"`
	Profile       string   `help:"Apply a named filter profile instead of ad-hoc flags"`
	ProfilesFile  string   `help:"Path to the profiles JSON document"`
	Context       int      `short:"C" default:"0" help:"Context lines around each match"`
}

// buildFilter resolves the flags into a single filter tree. A named profile wins
// over ad-hoc flags; with neither, the neutral always-match filter is returned.
func (f *filterFlags) buildFilter(globals *Globals) (filter.Node, error) {
	if f.Profile != "" {
		profiles, err := loadProfiles(f.profilesPath(globals))
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if p.Name == f.Profile {
				return p.Tree(), nil
			}
		}
		return nil, fmt.Errorf("profile %q not found", f.Profile)
	}

	var children []filter.Node
	for _, c := range f.Contains {
		children = append(children, filter.NewSubstring(c, f.CaseSensitive))
	}
	if f.Pattern != "" {
		re, err := filter.NewRegex(f.Pattern, f.CaseSensitive)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		children = append(children, re)
	}

	switch len(children) {
	case 0:
		return filter.NewTrue(), nil
	case 1:
		return children[0], nil
	default:
		return filter.NewAnd(children...), nil
	}
}

func (f *filterFlags) profilesPath(globals *Globals) string {
	if f.ProfilesFile != "" {
		return f.ProfilesFile
	}
	if globals.Config != nil {
		return globals.Config.Defaults.ProfilesFile
	}
	return ""
}

func loadProfiles(path string) ([]*filter.Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("no profiles file configured (set --profiles-file or defaults.profiles_file)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	profiles, err := filter.DecodeProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	return profiles, nil
}

// configDuration parses a duration from config, falling back when empty or bad.
func configDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
