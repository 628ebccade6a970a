package cli

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/ir"
)

// writeEntries writes entries as a JSON lines file and returns its path.
func writeEntries(t *testing.T, entries ...chatlog.Entry) string {
	t.Helper()

	var b strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(e)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "entries.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func testEntry(logID, sendAt int64, text string) chatlog.Entry {
	return chatlog.Entry{
		LogID:     logID,
		PrevLogID: logID - 1,
		SenderID:  7,
		Type:      1,
		Text:      &text,
		SendAt:    sendAt,
		MessageID: logID * 10,
	}
}

// parseLines decodes each non-empty output line as an entry.
func parseLines(t *testing.T, out string) []chatlog.Entry {
	t.Helper()

	var entries []chatlog.Entry
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if sc.Text() == "" {
			continue
		}
		var e chatlog.Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e), "line %q", sc.Text())
		entries = append(entries, e)
	}
	return entries
}

func logIDsOf(entries []chatlog.Entry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.LogID
	}
	return ids
}

// importTestLog fills channel 100 of user 42 with logIds 1..5 sent at
// 1000, 1010, ... 1040.
func importTestLog(t *testing.T, dir string) {
	t.Helper()

	var entries []chatlog.Entry
	for i := int64(1); i <= 5; i++ {
		entries = append(entries, testEntry(i, 990+10*i, "msg"))
	}
	out, _, err := execute(t, dir, "chat", "--user", "42", "--channel", "100", "import", writeEntries(t, entries...))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 entries into channel 100 (5 total)")
}

func TestChatImportAndDump(t *testing.T) {
	dir := t.TempDir()

	big := testEntry(9007199254740993, 1000, "big")
	big.Attachment = ir.NewObject(
		ir.O("path", ir.String("a/b.png")),
		ir.O("mid", ir.Int(9007199254740993)),
	)
	small := testEntry(3, 999, "small")

	_, _, err := execute(t, dir, "chat", "--user", "42", "--channel", "100", "import", writeEntries(t, big, small))
	require.NoError(t, err)

	out, _, err := execute(t, dir, "chat", "--user", "42", "--channel", "100", "dump")
	require.NoError(t, err)

	got := parseLines(t, out)
	require.Len(t, got, 2)
	assert.Equal(t, small, got[0])
	assert.Equal(t, big, got[1])
}

func TestChatDump_Ranges(t *testing.T) {
	dir := t.TempDir()
	importTestLog(t, dir)

	tests := []struct {
		name string
		args []string
		want []int64
	}{
		{"all", nil, []int64{1, 2, 3, 4, 5}},
		{"before", []string{"--before", "4"}, []int64{3, 2, 1}},
		{"before_limit", []string{"--before", "5", "--limit", "2"}, []int64{4, 3}},
		{"newest", []string{"--limit", "2"}, []int64{5, 4}},
		{"since", []string{"--since", "1020"}, []int64{3, 4, 5}},
		{"since_future", []string{"--since", "5000"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"chat", "--user", "42", "--channel", "100", "dump"}, tt.args...)
			out, _, err := execute(t, dir, args...)
			require.NoError(t, err)
			got := parseLines(t, out)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, logIDsOf(got))
		})
	}
}

func TestChatDump_JSON(t *testing.T) {
	dir := t.TempDir()
	importTestLog(t, dir)

	out, _, err := execute(t, dir, "--format", "json", "chat", "--user", "42", "--channel", "100", "dump", "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ChannelID int64           `json:"channelId"`
			Count     int             `json:"count"`
			Entries   []chatlog.Entry `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(100), resp.Data.ChannelID)
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, []int64{5}, logIDsOf(resp.Data.Entries))
}

func TestChatDump_RejectsSinceWithBefore(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "chat", "--user", "42", "--channel", "100", "dump", "--since", "1", "--before", "2")
	require.Error(t, err)
}

func TestChatDump_RequiresUser(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "chat", "--channel", "100", "dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestChatLast(t *testing.T) {
	dir := t.TempDir()
	importTestLog(t, dir)

	out, _, err := execute(t, dir, "chat", "--user", "42", "--channel", "100", "last")
	require.NoError(t, err)

	got := parseLines(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, testEntry(5, 1040, "msg"), got[0])
}

func TestChatLast_Empty(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "--format", "json", "chat", "--user", "42", "--channel", "100", "last")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestChatImport_ReplacesAndSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	importTestLog(t, dir)

	edited := testEntry(2, 1000, "edited")
	line, err := json.Marshal(edited)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "edit.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("\n"+string(line)+"\n  \n"), 0o600))

	out, _, err := execute(t, dir, "--format", "json", "chat", "--user", "42", "--channel", "100", "import", path)
	require.NoError(t, err)

	var resp struct {
		Data ChatImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ChatImportResult{ChannelID: 100, Imported: 1, Total: 5}, resp.Data)

	out, _, err = execute(t, dir, "chat", "--user", "42", "--channel", "100", "dump", "--before", "3", "--limit", "1")
	require.NoError(t, err)
	got := parseLines(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, edited, got[0])
}

func TestChatImport_BadLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	line, err := json.Marshal(testEntry(1, 1000, "ok"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(string(line)+"\n{not json\n"), 0o600))

	out, _, err := execute(t, dir, "chat", "--user", "42", "--channel", "100", "import", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, out, "Error [E030]")
}

func TestChatImport_MissingFile(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "chat", "--user", "42", "--channel", "100", "import", "/nonexistent/entries.jsonl")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestChat_AccountsAreSeparate(t *testing.T) {
	dir := t.TempDir()
	importTestLog(t, dir)

	out, _, err := execute(t, dir, "chat", "--user", "43", "--channel", "100", "dump")
	require.NoError(t, err)
	assert.Empty(t, parseLines(t, out))
}
