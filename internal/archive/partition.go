package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minniel/slack-history/internal/slack"
)

// partitionState is the mutable state of one conversation's partitioning
// pass: the day currently being accumulated, its messages, and the directory
// name in effect (renames swap it mid-stream). The state lives on the stack
// of a single PartitionMessages call; nothing is shared between
// conversations.
type partitionState struct {
	dayKey string
	bucket []slack.Message
	dir    string
}

// DayFile describes one archive file written during a partitioning pass.
type DayFile struct {
	Path     string
	Day      string
	Messages int
}

// PartitionMessages splits an oldest-first message stream into one JSON file
// per UTC day under {parentDir}/{conversationDir}. When a rename event is
// encountered the already-written files are relocated to the new directory
// name and all later writes go there too. Returns the files written, in
// write order.
//
// The first message (and an entirely empty stream) flushes the initial empty
// bucket, producing a "<dir>/.json" file holding []. That is the
// unconditional first-iteration flush this archive format has always had;
// readers expect the file, so it stays.
func PartitionMessages(parentDir, conversationDir string, msgs []slack.Message, conversationType string) ([]DayFile, error) {
	st := partitionState{dir: conversationDir}
	var written []DayFile

	flush := func() error {
		path := filepath.Join(parentDir, st.dir, st.dayKey+".json")
		if err := writeMessageFile(path, st.bucket); err != nil {
			return fmt.Errorf("write day file %s: %w", path, err)
		}
		written = append(written, DayFile{Path: path, Day: st.dayKey, Messages: len(st.bucket)})
		return nil
	}

	for i := range msgs {
		msg := &msgs[i]

		ts, err := ParseTS(msg.TS)
		if err != nil {
			return written, err
		}
		day := DayKey(ts)

		// Day boundary: the previous day's bucket is complete, write it out.
		if day != st.dayKey {
			if err := flush(); err != nil {
				return written, err
			}
			st.dayKey = day
			st.bucket = nil
		}

		if oldName, newName, ok := msg.RenameEvent(conversationType); ok {
			oldPath := filepath.Join(parentDir, oldName)
			newPath := filepath.Join(parentDir, newName)
			if err := RelocateDir(oldPath, newPath); err != nil {
				return written, fmt.Errorf("relocate %s -> %s: %w", oldPath, newPath, err)
			}
			st.dir = newName
		}

		st.bucket = append(st.bucket, *msg)
	}

	// Flush the final bucket unconditionally; an empty stream still writes
	// exactly one sentinel file.
	if err := flush(); err != nil {
		return written, err
	}

	return written, nil
}

// writeMessageFile overwrites path with the pretty-printed JSON array of
// messages, creating parent directories as needed.
func writeMessageFile(path string, msgs []slack.Message) error {
	if msgs == nil {
		// A nil slice would serialize as JSON null; day files always hold an
		// array.
		msgs = []slack.Message{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	data, err := json.MarshalIndent(msgs, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
