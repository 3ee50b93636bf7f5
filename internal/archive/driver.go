package archive

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/minniel/slack-history/internal/slack"
)

// Top-level directory per conversation class.
const (
	ChannelsDir        = "channel"
	PrivateChannelsDir = "private_channels"
	DirectMessagesDir  = "direct_message"
)

// SlackAPI is the slice of the Slack client the driver needs. *slack.Client
// satisfies it; tests substitute fakes.
type SlackAPI interface {
	AuthTest() (*slack.AuthInfo, error)
	ListChannels() ([]slack.Channel, error)
	ListPrivateChannels() ([]slack.Group, error)
	ListDirectMessages() ([]slack.DM, error)
	ListUsers() ([]slack.User, error)
	FetchHistory(conversationType, channelID string, pageSize int) ([]slack.Message, error)
}

// Recorder receives every day file written during a run, for cataloging.
type Recorder interface {
	RecordFile(conversationType, conversation string, f DayFile) error
}

// Driver walks every conversation class, fetching full history and
// partitioning it into the archive tree under OutputDir. Conversations are
// processed one at a time; a failed conversation is logged and skipped, it
// does not stop the run.
type Driver struct {
	API       SlackAPI
	OutputDir string
	PageSize  int
	DryRun    bool
	Recorder  Recorder
}

// RunOptions mirrors the CLI skip flags.
type RunOptions struct {
	SkipChannels        bool
	SkipPrivateChannels bool
	SkipDirectMessages  bool
}

// Run executes a full archive pass: auth check, user enumeration, snapshot
// dumps, then each conversation class unless skipped.
func (d *Driver) Run(opts RunOptions) error {
	auth, err := d.API.AuthTest()
	if err != nil {
		return fmt.Errorf("auth test: %w", err)
	}
	log.Printf("Successfully authenticated for team %s and user %s", auth.Team, auth.User)

	users, err := d.API.ListUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	log.Printf("Found %d users", len(users))

	if !d.DryRun {
		if err := d.DumpUsers(users); err != nil {
			return err
		}
		if err := d.DumpChannels(); err != nil {
			return err
		}
	}

	if !opts.SkipChannels {
		if err := d.ArchiveChannels(); err != nil {
			return err
		}
	}
	if !opts.SkipPrivateChannels {
		if err := d.ArchivePrivateChannels(); err != nil {
			return err
		}
	}
	if !opts.SkipDirectMessages {
		if err := d.ArchiveDirectMessages(slack.UserNameMap(users)); err != nil {
			return err
		}
	}

	return nil
}

// ArchiveChannels fetches and writes history for every public channel.
func (d *Driver) ArchiveChannels() error {
	channels, err := d.API.ListChannels()
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	log.Printf("Found %d channels:", len(channels))
	for _, ch := range channels {
		log.Printf("  %s", ch.Name)
	}

	if d.DryRun {
		return nil
	}

	for _, ch := range channels {
		log.Printf("Getting history for channel %s", ch.Name)
		if err := d.archiveConversation(ChannelsDir, ch.Name, slack.TypeChannel, ch.ID); err != nil {
			log.Printf("Failed to archive channel %s: %v", ch.Name, err)
		}
	}

	return nil
}

// ArchivePrivateChannels fetches and writes history for every private
// channel the user is a member of.
func (d *Driver) ArchivePrivateChannels() error {
	groups, err := d.API.ListPrivateChannels()
	if err != nil {
		return fmt.Errorf("list private channels: %w", err)
	}

	log.Printf("Found %d private channels:", len(groups))
	for _, g := range groups {
		log.Printf("  %s (%d members)", g.Name, len(g.Members))
	}

	if d.DryRun {
		return nil
	}

	for _, g := range groups {
		log.Printf("Getting history for private channel %s with id %s", g.Name, g.ID)
		if err := d.archiveConversation(PrivateChannelsDir, g.Name, slack.TypeGroup, g.ID); err != nil {
			log.Printf("Failed to archive private channel %s: %v", g.Name, err)
		}
	}

	return nil
}

// ArchiveDirectMessages fetches and writes history for every 1:1
// conversation. Directory names come from the user map; unknown user IDs
// fall back to "<id> (name unknown)".
func (d *Driver) ArchiveDirectMessages(userNames map[string]string) error {
	dms, err := d.API.ListDirectMessages()
	if err != nil {
		return fmt.Errorf("list direct messages: %w", err)
	}

	log.Printf("Found direct messages (1:1) with %d users:", len(dms))
	for _, dm := range dms {
		log.Printf("  %s", dmDirName(dm, userNames))
	}

	if d.DryRun {
		return nil
	}

	for _, dm := range dms {
		name := dmDirName(dm, userNames)
		log.Printf("Getting history for direct messages with %s", name)
		if err := d.archiveConversation(DirectMessagesDir, name, slack.TypeIM, dm.ID); err != nil {
			log.Printf("Failed to archive direct messages with %s: %v", name, err)
		}
	}

	return nil
}

func dmDirName(dm slack.DM, userNames map[string]string) string {
	if name, ok := userNames[dm.User]; ok && name != "" {
		return name
	}
	return dm.User + " (name unknown)"
}

// archiveConversation runs the fetch -> partition sequence for one
// conversation and records the written files.
func (d *Driver) archiveConversation(parentName, conversationDir, conversationType, channelID string) error {
	parentDir := filepath.Join(d.OutputDir, parentName)
	if err := os.MkdirAll(filepath.Join(parentDir, conversationDir), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	msgs, err := d.API.FetchHistory(conversationType, channelID, d.PageSize)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	files, partErr := PartitionMessages(parentDir, conversationDir, msgs, conversationType)

	// Record whatever was written, even when partitioning failed partway.
	if d.Recorder != nil {
		for _, f := range files {
			if err := d.Recorder.RecordFile(conversationType, conversationDir, f); err != nil {
				log.Printf("Failed to record %s in index: %v", f.Path, err)
			}
		}
	}

	return partErr
}
