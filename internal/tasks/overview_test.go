package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/ytcat/internal/services"
	"github.com/desertthunder/ytcat/internal/shared"
	tu "github.com/desertthunder/ytcat/internal/testing"
)

func TestOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("marks categorized channels", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user(t, "alice")
		music := f.category(t, alice, "Music")

		fake := tu.NewFakeYouTube(t, tu.Channels("ch", 3))
		overview := NewOverview(services.NewSubscriptionFetcher(services.WithEndpoint(fake.Endpoint())), f.query)

		_, err := f.categorizer.Categorize(ctx, alice, CategorizeRequest{ChannelID: "ch-2", CategoryID: &music.ID})
		require.NoError(t, err)

		statuses, err := overview.Build(ctx, alice)
		require.NoError(t, err)
		require.Len(t, statuses, 3)

		assert.False(t, statuses[0].Categorized)
		assert.True(t, statuses[1].Categorized)
		require.NotNil(t, statuses[1].CategoryName)
		assert.Equal(t, "Music", *statuses[1].CategoryName)
		assert.False(t, statuses[2].Categorized)
		assert.Equal(t, "Channel ch-1", statuses[0].Title)
	})

	t.Run("fetch failure returns nothing", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user(t, "alice")

		fake := tu.NewFakeYouTube(t, tu.Channels("a", 50), tu.Channels("b", 10))
		fake.FailPage = 2
		overview := NewOverview(services.NewSubscriptionFetcher(services.WithEndpoint(fake.Endpoint())), f.query)

		statuses, err := overview.Build(ctx, alice)
		assert.Nil(t, statuses)
		assert.ErrorIs(t, err, shared.ErrFetchFailed)
	})
}
