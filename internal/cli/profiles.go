package cli

import (
	"encoding/json"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/logsieve/internal/filter"
)

// ProfilesCmd lists the persisted filter profiles.
type ProfilesCmd struct {
	ProfilesFile string `help:"Path to the profiles JSON document"`
}

// Run executes the profiles command.
func (c *ProfilesCmd) Run(globals *Globals) error {
	path := c.ProfilesFile
	if path == "" && globals.Config != nil {
		path = globals.Config.Defaults.ProfilesFile
	}
	profiles, err := loadProfiles(path)
	if err != nil {
		return err
	}

	if globals.Format == "ndjson" {
		enc := json.NewEncoder(globals.Stdout)
		for _, p := range profiles {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("NAME", "ENABLED", "FILTER")
	for _, p := range profiles {
		enabled := "yes"
		if !p.Enabled {
			enabled = "no"
		}
		if err := table.Append([]string{p.Name, enabled, filter.Describe(p.Root)}); err != nil {
			return err
		}
	}
	return table.Render()
}
