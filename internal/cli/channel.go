package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/docstore"
	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/loader"
)

// document is the part of a channel document store the channel commands
// use. Normal and open stores both satisfy it.
type document interface {
	Path() string
	Fresh() bool
	InfoObject() ir.Object
	LastUpdate() int64
	UserCount() int
	Watermark(readerID int64) (int64, bool)
	UpdateWatermark(ctx context.Context, readerID, logID int64) error
	ReadCount(e chatlog.Entry) int
}

// ChannelOptions holds flags shared by the channel subcommands.
type ChannelOptions struct {
	*RootOptions
	UserID    int64
	ChannelID int64
	LinkID    int64
}

// kind returns the channel variant selected by --link.
func (o *ChannelOptions) kind() channel.Kind {
	if o.LinkID != 0 {
		return channel.KindOpen
	}
	return channel.KindNormal
}

// NewChannelCommand creates the channel command group.
func NewChannelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChannelOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Inspect and update a channel document",
		Long: `Inspect and update the document kept per channel: channel info,
members and read watermarks. Pass --link to address an open channel
joined through that link.`,
	}

	cmd.PersistentFlags().Int64Var(&opts.UserID, "user", 0, "account user id (required)")
	cmd.PersistentFlags().Int64Var(&opts.ChannelID, "channel", 0, "channel id (required)")
	cmd.PersistentFlags().Int64Var(&opts.LinkID, "link", 0, "open link id (open channels only)")
	_ = cmd.MarkPersistentFlagRequired("user")
	_ = cmd.MarkPersistentFlagRequired("channel")

	cmd.AddCommand(newChannelShowCommand(opts))
	cmd.AddCommand(newChannelReadCommand(opts))
	cmd.AddCommand(newChannelReadCountCommand(opts))

	return cmd
}

// openDocument opens the account loader and the selected channel
// document. The caller closes the loader.
func (o *ChannelOptions) openDocument(ctx context.Context) (*loader.Loader, document, error) {
	ld, err := o.openLoader(o.UserID)
	if err != nil {
		return nil, nil, err
	}

	var doc document
	if o.kind() == channel.KindOpen {
		var res loader.Result[*docstore.OpenStore]
		res, err = ld.LoadOpenChannel(ctx, o.ChannelID, o.LinkID, 0)
		doc = res.Store
	} else {
		var res loader.Result[*docstore.NormalStore]
		res, err = ld.LoadNormalChannel(ctx, o.ChannelID, 0)
		doc = res.Store
	}
	if err != nil {
		_ = ld.Close()
		return nil, nil, WrapExitError(ExitFailure, "failed to open channel document", err)
	}
	return ld, doc, nil
}

// ChannelShowResult is the output of channel show.
type ChannelShowResult struct {
	ChannelID  int64        `json:"channelId"`
	LinkID     int64        `json:"linkId,omitempty"`
	Kind       channel.Kind `json:"kind"`
	Path       string       `json:"path"`
	Fresh      bool         `json:"fresh"`
	LastUpdate int64        `json:"lastUpdate"`
	UserCount  int          `json:"userCount"`
	Info       ir.Object    `json:"info"`
}

func newChannelShowCommand(chOpts *ChannelOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print a channel document summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannelShow(cmd, chOpts)
		},
	}
}

func runChannelShow(cmd *cobra.Command, opts *ChannelOptions) error {
	f := opts.formatter(cmd)

	ld, doc, err := opts.openDocument(cmd.Context())
	if err != nil {
		return err
	}
	defer ld.Close()

	result := ChannelShowResult{
		ChannelID:  opts.ChannelID,
		LinkID:     opts.LinkID,
		Kind:       opts.kind(),
		Path:       doc.Path(),
		Fresh:      doc.Fresh(),
		LastUpdate: doc.LastUpdate(),
		UserCount:  doc.UserCount(),
		Info:       doc.InfoObject(),
	}
	if f.Format == "json" {
		return f.Success(result)
	}

	info, err := ir.MarshalLossless(result.Info)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode info", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Channel %d (%s)\n", result.ChannelID, result.Kind)
	fmt.Fprintf(&b, "  path:        %s\n", result.Path)
	fmt.Fprintf(&b, "  stored:      %t\n", !result.Fresh)
	fmt.Fprintf(&b, "  last update: %d\n", result.LastUpdate)
	fmt.Fprintf(&b, "  members:     %d\n", result.UserCount)
	fmt.Fprintf(&b, "  info:        %s", info)
	return f.Success(b.String())
}

// ChannelReadOptions holds flags for channel read.
type ChannelReadOptions struct {
	*ChannelOptions
	ReaderID int64
	LogID    int64
}

func newChannelReadCommand(chOpts *ChannelOptions) *cobra.Command {
	opts := &ChannelReadOptions{ChannelOptions: chOpts}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Record that a member has read up to a log id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannelRead(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.ReaderID, "reader", 0, "reading member's user id (required)")
	cmd.Flags().Int64Var(&opts.LogID, "log-id", 0, "last read logId (required)")
	_ = cmd.MarkFlagRequired("reader")
	_ = cmd.MarkFlagRequired("log-id")

	return cmd
}

func runChannelRead(cmd *cobra.Command, opts *ChannelReadOptions) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	ld, doc, err := opts.openDocument(ctx)
	if err != nil {
		return err
	}
	defer ld.Close()

	if err := doc.UpdateWatermark(ctx, opts.ReaderID, opts.LogID); err != nil {
		_ = f.Error(ErrCodeWriteFail, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to update watermark", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]any{
			"channelId": opts.ChannelID,
			"readerId":  opts.ReaderID,
			"logId":     opts.LogID,
		})
	}
	return f.Success(fmt.Sprintf("Member %d has read channel %d up to %d", opts.ReaderID, opts.ChannelID, opts.LogID))
}

// ChannelReadCountOptions holds flags for channel read-count.
type ChannelReadCountOptions struct {
	*ChannelOptions
	LogID int64
}

func newChannelReadCountCommand(chOpts *ChannelOptions) *cobra.Command {
	opts := &ChannelReadCountOptions{ChannelOptions: chOpts}

	cmd := &cobra.Command{
		Use:   "read-count",
		Short: "Count members who have read a log id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannelReadCount(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.LogID, "log-id", 0, "logId to count readers of (required)")
	_ = cmd.MarkFlagRequired("log-id")

	return cmd
}

func runChannelReadCount(cmd *cobra.Command, opts *ChannelReadCountOptions) error {
	f := opts.formatter(cmd)

	ld, doc, err := opts.openDocument(cmd.Context())
	if err != nil {
		return err
	}
	defer ld.Close()

	n := doc.ReadCount(chatlog.Entry{LogID: opts.LogID})
	if f.Format == "json" {
		return f.Success(map[string]any{
			"channelId": opts.ChannelID,
			"logId":     opts.LogID,
			"readCount": n,
		})
	}
	return f.Success(n)
}
