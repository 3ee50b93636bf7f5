package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/minniel/slack-history/internal/archive"
	"github.com/minniel/slack-history/internal/config"
	"github.com/minniel/slack-history/internal/index"
	"github.com/minniel/slack-history/internal/slack"
)

var (
	flagToken               string
	flagOutput              string
	flagDryRun              bool
	flagSkipChannels        bool
	flagSkipPrivateChannels bool
	flagSkipDirectMessages  bool
)

var rootCmd = &cobra.Command{
	Use:   "slack-history",
	Short: "Download a Slack workspace's full conversation history to local JSON files",
	Long: `slack-history finds all channels, private channels and direct messages your
user participates in, downloads the complete history for each conversation,
and writes it out as one JSON file per conversation per day.

The official Slack exporter only covers public channels; fetching through a
user token also captures private channels and direct messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchive()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", `output directory (default from SLACK_HISTORY_DIR, or ".")`)
	rootCmd.Flags().StringVar(&flagToken, "token", "", "slack user API token (falls back to SLACK_TOKEN)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "only list conversations, don't fetch or write history")
	rootCmd.Flags().BoolVar(&flagSkipChannels, "skip-channels", false, "skip fetching history for public channels")
	rootCmd.Flags().BoolVar(&flagSkipPrivateChannels, "skip-private-channels", false, "skip fetching history for private channels")
	rootCmd.Flags().BoolVar(&flagSkipDirectMessages, "skip-direct-messages", false, "skip fetching history for direct messages")
}

// loadConfig resolves the configuration and layers the CLI flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagToken != "" {
		cfg.SlackToken = flagToken
	}
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	return cfg, nil
}

func runArchive() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.SlackToken == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		token, err := promptToken()
		if err != nil {
			return err
		}
		cfg.SlackToken = token
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var ix *index.Index
	var recorder archive.Recorder
	if !flagDryRun {
		ix, err = index.Open(cfg.OutputDir)
		if err != nil {
			return err
		}
		defer ix.Close()
		if err := ix.BeginRun(); err != nil {
			return err
		}
		recorder = ix
	}

	driver := &archive.Driver{
		API:       slack.NewClient(cfg.SlackToken),
		OutputDir: cfg.OutputDir,
		PageSize:  cfg.PageSize,
		DryRun:    flagDryRun,
		Recorder:  recorder,
	}

	runErr := driver.Run(archive.RunOptions{
		SkipChannels:        flagSkipChannels,
		SkipPrivateChannels: flagSkipPrivateChannels,
		SkipDirectMessages:  flagSkipDirectMessages,
	})

	if ix != nil {
		if err := ix.FinishRun(); err != nil {
			log.Printf("Failed to finalize index run: %v", err)
		}
	}

	return runErr
}

// promptToken reads the token from the terminal without echoing it.
func promptToken() (string, error) {
	fmt.Fprint(os.Stderr, "Slack API token: ")
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}
