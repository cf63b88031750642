package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/ui"
)

// ChannelsMine lists the channels owned by the current user's YouTube account.
func (r *Runner) ChannelsMine(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	channels, err := r.channelSource().OwnChannels(ctx, user.Credentials())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(channels, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Your channels (%d)", len(channels)))
	for _, c := range channels {
		r.writePlain("%s %s %s\n", ui.Styles.Label(c.Title), ui.Styles.Help("["+c.ID+"]"),
			ui.Styles.Help(fmt.Sprintf("%d videos, %d subscribers", c.VideoCount, c.SubscriberCount)))
	}
	return nil
}

// ChannelsVideos lists the most recent uploads of one channel.
func (r *Runner) ChannelsVideos(ctx context.Context, cmd *cli.Command) error {
	channelID := strings.TrimSpace(cmd.StringArg("channel_id"))
	if channelID == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")
	if limit < 1 || limit > shared.MaxPageSize {
		return fmt.Errorf("%w: --limit must be between 1 and %d", shared.ErrInvalidArgument, shared.MaxPageSize)
	}

	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	videos, err := r.channelSource().RecentVideos(ctx, user.Credentials(), channelID, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Recent uploads of %s (%d)", channelID, len(videos)))
	for i, v := range videos {
		r.writePlain("%3d. %s %s %s\n", i+1, v.Title, ui.Styles.Help("["+v.VideoID+"]"),
			ui.Styles.Help(v.PublishedAt.Format("2006-01-02")))
	}
	return nil
}
