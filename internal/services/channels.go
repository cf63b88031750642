// YouTube Data API v3 channel lookups
//
// channels.list for the signed-in user's own channels and a channel's uploads playlist,
// playlistItems.list for the latest uploads.
package services

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

// DefaultRecentVideos is how many uploads [SubscriptionFetcher.RecentVideos] returns when no limit is given.
const DefaultRecentVideos = 10

// OwnChannels returns the channels owned by the credential's user.
func (f *SubscriptionFetcher) OwnChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("cannot list channels: %w", err)
	}

	svc, err := f.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet", "contentDetails", "statistics"}).
		Mine(true).
		MaxResults(shared.MaxPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list own channels: %w", classifyAPIError(err))
	}

	channels := make([]models.Channel, 0, len(resp.Items))
	for _, c := range resp.Items {
		channels = append(channels, toChannel(c))
	}
	f.logger.Debug("listed own channels", "user_id", creds.UserID, "channels", len(channels))
	return channels, nil
}

// UploadsPlaylist returns the id of the playlist holding channelID's uploads.
//
// A channel that does not exist, or has no uploads playlist, is a [shared.NotFoundError].
func (f *SubscriptionFetcher) UploadsPlaylist(ctx context.Context, creds models.Credentials, channelID string) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", fmt.Errorf("cannot look up channel: %w", err)
	}
	if channelID == "" {
		return "", fmt.Errorf("%w: channel id is required", shared.ErrInvalidInput)
	}

	svc, err := f.service(ctx, creds.AccessToken)
	if err != nil {
		return "", err
	}
	return f.uploadsPlaylist(ctx, svc, channelID)
}

// RecentVideos returns up to limit of channelID's latest uploads in playlist order, newest first.
// limit is clamped to 1..50 and defaults to [DefaultRecentVideos].
func (f *SubscriptionFetcher) RecentVideos(ctx context.Context, creds models.Credentials, channelID string, limit int) ([]models.Video, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("cannot list videos: %w", err)
	}
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultRecentVideos
	}
	limit = min(limit, shared.MaxPageSize)

	svc, err := f.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	playlistID, err := f.uploadsPlaylist(ctx, svc, channelID)
	if err != nil {
		return nil, err
	}

	resp, err := svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads of %s: %w", channelID, classifyAPIError(err))
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		v, ok := toVideo(item)
		if !ok {
			f.logger.Debug("skipping playlist item without a video id", "playlist_id", playlistID, "item_id", item.Id)
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (f *SubscriptionFetcher) uploadsPlaylist(ctx context.Context, svc *youtube.Service, channelID string) (string, error) {
	resp, err := svc.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up channel %s: %w", channelID, classifyAPIError(err))
	}

	for _, c := range resp.Items {
		if c.ContentDetails != nil && c.ContentDetails.RelatedPlaylists != nil && c.ContentDetails.RelatedPlaylists.Uploads != "" {
			return c.ContentDetails.RelatedPlaylists.Uploads, nil
		}
	}
	return "", &shared.NotFoundError{Resource: "channel", ID: channelID}
}

func toChannel(c *youtube.Channel) models.Channel {
	ch := models.Channel{ID: c.Id}
	if s := c.Snippet; s != nil {
		ch.Title = s.Title
		ch.Description = s.Description
		ch.ThumbnailURL = thumbnailURL(s.Thumbnails)
	}
	if d := c.ContentDetails; d != nil && d.RelatedPlaylists != nil {
		ch.UploadsPlaylistID = d.RelatedPlaylists.Uploads
	}
	if st := c.Statistics; st != nil {
		ch.SubscriberCount = st.SubscriberCount
		ch.VideoCount = st.VideoCount
		ch.ViewCount = st.ViewCount
	}
	return ch
}

func toVideo(item *youtube.PlaylistItem) (models.Video, bool) {
	s := item.Snippet
	if s == nil || s.ResourceId == nil || s.ResourceId.VideoId == "" {
		return models.Video{}, false
	}

	v := models.Video{
		VideoID:      s.ResourceId.VideoId,
		Title:        s.Title,
		ThumbnailURL: thumbnailURL(s.Thumbnails),
	}
	if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		v.PublishedAt = t
	}
	return v, true
}
