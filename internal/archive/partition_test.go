package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minniel/slack-history/internal/slack"
)

// Timestamps in the tests fall on 2020-01-01 through 2020-01-03 UTC
// (1577836800 is 2020-01-01 00:00:00Z).
func msg(ts string) slack.Message {
	return slack.Message{TS: ts}
}

func readDayFile(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []struct {
		TS string `json:"ts"`
	}
	require.NoError(t, json.Unmarshal(data, &records))

	tss := make([]string, 0, len(records))
	for _, r := range records {
		tss = append(tss, r.TS)
	}
	return tss
}

func TestPartitionMessages(t *testing.T) {
	t.Run("one file per day in increasing day order", func(t *testing.T) {
		parent := t.TempDir()
		msgs := []slack.Message{
			msg("1577836800.000100"), // 2020-01-01
			msg("1577840400.000200"), // 2020-01-01
			msg("1577923200.000300"), // 2020-01-02
			msg("1577926800.000400"), // 2020-01-02
			msg("1577930400.000500"), // 2020-01-02
			msg("1578009600.000600"), // 2020-01-03
		}

		written, err := PartitionMessages(parent, "general", msgs, slack.TypeChannel)
		require.NoError(t, err)

		days := make([]string, 0, len(written))
		for _, f := range written {
			days = append(days, f.Day)
		}
		assert.Equal(t, []string{"", "2020-01-01", "2020-01-02", "2020-01-03"}, days)

		assert.Equal(t,
			[]string{"1577836800.000100", "1577840400.000200"},
			readDayFile(t, filepath.Join(parent, "general", "2020-01-01.json")))
		assert.Equal(t,
			[]string{"1577923200.000300", "1577926800.000400", "1577930400.000500"},
			readDayFile(t, filepath.Join(parent, "general", "2020-01-02.json")))
		assert.Equal(t,
			[]string{"1578009600.000600"},
			readDayFile(t, filepath.Join(parent, "general", "2020-01-03.json")))
	})

	t.Run("empty stream writes exactly one sentinel file", func(t *testing.T) {
		parent := t.TempDir()

		written, err := PartitionMessages(parent, "general", nil, slack.TypeChannel)
		require.NoError(t, err)
		require.Len(t, written, 1)
		assert.Equal(t, "", written[0].Day)
		assert.Equal(t, 0, written[0].Messages)

		data, err := os.ReadFile(filepath.Join(parent, "general", ".json"))
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))

		entries, err := os.ReadDir(filepath.Join(parent, "general"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rename relocates earlier files and redirects later writes", func(t *testing.T) {
		parent := t.TempDir()
		rename := msg("1577923200.000300") // 2020-01-02
		rename.Subtype = "channel_name"
		rename.OldName = "foo"
		rename.Name = "bar"

		msgs := []slack.Message{
			msg("1577836800.000100"), // 2020-01-01
			msg("1577840400.000200"), // 2020-01-01
			rename,
			msg("1577926800.000400"), // 2020-01-02
			msg("1578009600.000500"), // 2020-01-03
		}

		_, err := PartitionMessages(parent, "foo", msgs, slack.TypeChannel)
		require.NoError(t, err)

		_, statErr := os.Stat(filepath.Join(parent, "foo"))
		assert.True(t, os.IsNotExist(statErr), "old directory should be gone")

		assert.Equal(t,
			[]string{"1577836800.000100", "1577840400.000200"},
			readDayFile(t, filepath.Join(parent, "bar", "2020-01-01.json")))
		assert.Equal(t,
			[]string{"1577923200.000300", "1577926800.000400"},
			readDayFile(t, filepath.Join(parent, "bar", "2020-01-02.json")))
		assert.Equal(t,
			[]string{"1578009600.000500"},
			readDayFile(t, filepath.Join(parent, "bar", "2020-01-03.json")))

		// The sentinel file flushed before the rename moved with the rest.
		_, err = os.Stat(filepath.Join(parent, "bar", ".json"))
		assert.NoError(t, err)
	})

	t.Run("direct messages never rename", func(t *testing.T) {
		parent := t.TempDir()
		rename := msg("1577836800.000100")
		rename.Subtype = "im_name"
		rename.OldName = "foo"
		rename.Name = "bar"

		_, err := PartitionMessages(parent, "alice", []slack.Message{rename}, slack.TypeIM)
		require.NoError(t, err)

		_, statErr := os.Stat(filepath.Join(parent, "bar"))
		assert.True(t, os.IsNotExist(statErr))
		assert.Equal(t,
			[]string{"1577836800.000100"},
			readDayFile(t, filepath.Join(parent, "alice", "2020-01-01.json")))
	})

	t.Run("malformed timestamp aborts the conversation", func(t *testing.T) {
		parent := t.TempDir()
		msgs := []slack.Message{
			msg("1577836800.000100"),
			msg("not-a-timestamp"),
		}

		written, err := PartitionMessages(parent, "general", msgs, slack.TypeChannel)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedTimestamp)
		// Only the sentinel flush happened before the bad message.
		assert.Len(t, written, 1)
	})

	t.Run("rewriting a day file replaces it wholesale", func(t *testing.T) {
		parent := t.TempDir()

		first := []slack.Message{
			msg("1577836800.000100"),
			msg("1577840400.000200"),
		}
		_, err := PartitionMessages(parent, "general", first, slack.TypeChannel)
		require.NoError(t, err)

		second := []slack.Message{msg("1577844000.000900")}
		_, err = PartitionMessages(parent, "general", second, slack.TypeChannel)
		require.NoError(t, err)

		assert.Equal(t,
			[]string{"1577844000.000900"},
			readDayFile(t, filepath.Join(parent, "general", "2020-01-01.json")))
	})
}

func TestWriteMessageFile(t *testing.T) {
	t.Run("nil bucket serializes as an empty array", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "general", "2020-01-01.json")
		require.NoError(t, writeMessageFile(path, nil))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	})

	t.Run("output is indented with four spaces", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.json")
		require.NoError(t, writeMessageFile(path, []slack.Message{msg("1.0")}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n    {")
	})
}
