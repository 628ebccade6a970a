package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/loader"
	"github.com/roach88/talkdb/internal/logstore"
)

// importBatch is the number of entries appended per transaction by
// chat import.
const importBatch = 500

// ChatOptions holds flags shared by the chat subcommands.
type ChatOptions struct {
	*RootOptions
	UserID    int64
	ChannelID int64
}

// NewChatCommand creates the chat command group.
func NewChatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read and write a channel's chat log",
	}

	cmd.PersistentFlags().Int64Var(&opts.UserID, "user", 0, "account user id (required)")
	cmd.PersistentFlags().Int64Var(&opts.ChannelID, "channel", 0, "channel id (required)")
	_ = cmd.MarkPersistentFlagRequired("user")
	_ = cmd.MarkPersistentFlagRequired("channel")

	cmd.AddCommand(newChatDumpCommand(opts))
	cmd.AddCommand(newChatLastCommand(opts))
	cmd.AddCommand(newChatImportCommand(opts))

	return cmd
}

// openChat opens the account loader and the channel's chat log. The
// caller closes the loader.
func (o *ChatOptions) openChat(ctx context.Context) (*loader.Loader, loader.Result[*logstore.Store], error) {
	ld, err := o.openLoader(o.UserID)
	if err != nil {
		return nil, loader.Result[*logstore.Store]{}, err
	}
	res, err := ld.LoadChatList(ctx, o.ChannelID)
	if err != nil {
		_ = ld.Close()
		return nil, loader.Result[*logstore.Store]{}, WrapExitError(ExitFailure, "failed to open chat log", err)
	}
	return ld, res, nil
}

// ChatDumpOptions holds flags for chat dump.
type ChatDumpOptions struct {
	*ChatOptions
	Before int64
	Limit  int
	Since  int64
}

func newChatDumpCommand(chatOpts *ChatOptions) *cobra.Command {
	opts := &ChatDumpOptions{ChatOptions: chatOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print chat entries as JSON lines",
		Long: `Print entries of a chat log, one JSON object per line.

With no range flags every entry is printed in ascending logId order.
--before prints entries older than the given logId, newest first.
--limit alone prints the newest entries, newest first.
--since prints entries sent at or after the given unix time, oldest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatDump(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.Before, "before", 0, "only entries with logId below this value")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum entries (0 = no limit)")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only entries sent at or after this unix time")
	cmd.MarkFlagsMutuallyExclusive("before", "since")
	cmd.MarkFlagsMutuallyExclusive("limit", "since")

	return cmd
}

func runChatDump(cmd *cobra.Command, opts *ChatDumpOptions) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	ld, res, err := opts.openChat(ctx)
	if err != nil {
		return err
	}
	defer ld.Close()

	var seq *logstore.Sequence
	switch {
	case cmd.Flags().Changed("since"):
		seq = res.Store.Since(ctx, opts.Since)
	case cmd.Flags().Changed("before"):
		seq = res.Store.Before(ctx, opts.Before, opts.Limit)
	case opts.Limit > 0:
		seq = res.Store.Before(ctx, math.MaxInt64, opts.Limit)
	default:
		seq = res.Store.All(ctx)
	}

	if f.Format == "json" {
		entries, err := seq.Collect()
		if err != nil {
			_ = f.Error(ErrCodeDecrypt, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to read chat log", err)
		}
		return f.Success(map[string]any{
			"channelId": opts.ChannelID,
			"count":     len(entries),
			"entries":   entries,
		})
	}

	n := 0
	for e, err := range seq.Entries() {
		if err != nil {
			_ = f.Error(ErrCodeDecrypt, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to read chat log", err)
		}
		if err := f.Line(e); err != nil {
			return err
		}
		n++
	}
	f.VerboseLog("%d entries", n)
	return nil
}

func newChatLastCommand(chatOpts *ChatOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the entry with the highest logId",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatLast(cmd, chatOpts)
		},
	}
}

func runChatLast(cmd *cobra.Command, opts *ChatOptions) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	ld, res, err := opts.openChat(ctx)
	if err != nil {
		return err
	}
	defer ld.Close()

	e, err := res.Store.Last(ctx)
	if errors.Is(err, logstore.ErrNotFound) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("chat log of channel %d is empty", opts.ChannelID), nil)
		return WrapExitError(ExitFailure, "no entries", err)
	}
	if err != nil {
		_ = f.Error(ErrCodeDecrypt, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read chat log", err)
	}

	if f.Format == "json" {
		return f.Success(e)
	}
	return f.Line(e)
}

// ChatImportResult is the output of chat import.
type ChatImportResult struct {
	ChannelID int64 `json:"channelId"`
	Imported  int   `json:"imported"`
	Total     int   `json:"total"`
}

func newChatImportCommand(chatOpts *ChatOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Append entries from a JSON lines file",
		Long: `Append chat entries read from a file holding one JSON object per
line, in the format chat dump prints. Entries whose logId already exists
are replaced. Blank lines are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatImport(cmd, chatOpts, args[0])
		},
	}
}

func runChatImport(cmd *cobra.Command, opts *ChatOptions, path string) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	file, err := os.Open(path)
	if err != nil {
		_ = f.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer file.Close()

	ld, res, err := opts.openChat(ctx)
	if err != nil {
		return err
	}
	defer ld.Close()

	batch := make([]chatlog.Entry, 0, importBatch)
	imported := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := res.Store.Append(ctx, batch...); err != nil {
			_ = f.Error(ErrCodeWriteFail, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to append entries", err)
		}
		imported += len(batch)
		f.VerboseLog("appended %d entries", imported)
		batch = batch[:0]
		return nil
	}

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var e chatlog.Entry
		if err := json.Unmarshal(text, &e); err != nil {
			_ = f.Error(ErrCodeBadInput, fmt.Sprintf("line %d: %v", line, err), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid entry on line %d", line), err)
		}
		batch = append(batch, e)
		if len(batch) == importBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		_ = f.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	if err := flush(); err != nil {
		return err
	}

	total, err := res.Store.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count entries", err)
	}

	result := ChatImportResult{ChannelID: opts.ChannelID, Imported: imported, Total: total}
	if f.Format == "json" {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("Imported %d entries into channel %d (%d total)", imported, opts.ChannelID, total))
}
