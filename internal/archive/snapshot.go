package archive

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/minniel/slack-history/internal/slack"
)

// DumpUsers overwrites users.json at the output root with every workspace
// member, as returned by users.list.
func (d *Driver) DumpUsers(users []slack.User) error {
	log.Printf("Making users file")
	if users == nil {
		users = []slack.User{}
	}
	path := filepath.Join(d.OutputDir, "users.json")
	if err := writeJSONFile(path, users); err != nil {
		return fmt.Errorf("dump users: %w", err)
	}
	return nil
}

// DumpChannels overwrites channels.json at the output root with every public
// and private channel, private ones normalized into channel shape.
func (d *Driver) DumpChannels() error {
	log.Printf("Making channels file")

	channels, err := d.API.ListChannels()
	if err != nil {
		return fmt.Errorf("dump channels: list channels: %w", err)
	}
	groups, err := d.API.ListPrivateChannels()
	if err != nil {
		return fmt.Errorf("dump channels: list private channels: %w", err)
	}

	for _, g := range groups {
		channels = append(channels, g.AsChannel())
	}
	if channels == nil {
		channels = []slack.Channel{}
	}

	path := filepath.Join(d.OutputDir, "channels.json")
	if err := writeJSONFile(path, channels); err != nil {
		return fmt.Errorf("dump channels: %w", err)
	}
	return nil
}

// writeJSONFile overwrites path with the pretty-printed JSON encoding of v.
func writeJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
