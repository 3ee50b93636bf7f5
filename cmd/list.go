package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minniel/slack-history/internal/index"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show what the most recent archive run wrote",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ix, err := index.Open(cfg.OutputDir)
		if err != nil {
			return err
		}
		defer ix.Close()

		run, files, err := ix.LatestRun()
		if err != nil {
			return err
		}
		if run == nil {
			fmt.Println("No archive runs recorded yet.")
			return nil
		}

		fmt.Printf("Run %d started %s", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.FinishedAt.Valid {
			fmt.Printf(", finished %s", run.FinishedAt.Time.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf(": %d conversations, %d files\n", run.Conversations, run.Files)

		current := ""
		for _, f := range files {
			key := f.ConversationType + "/" + f.Conversation
			if key != current {
				fmt.Printf("\n%s (%s)\n", f.Conversation, f.ConversationType)
				current = key
			}
			fmt.Printf("  %s  %d messages\n", f.Day, f.Messages)
		}

		return nil
	},
}
