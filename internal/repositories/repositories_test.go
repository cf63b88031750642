package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	tu "github.com/desertthunder/ytcat/internal/testing"
)

func ptr[T any](v T) *T { return &v }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert creates on first login", func(t *testing.T) {
		db := tu.NewTestDB(t)
		repo := NewUserRepository(db)

		user, err := repo.Upsert(ctx, models.LoginProfile{
			ExternalID:   "google-1",
			Email:        "one@example.com",
			Name:         "One",
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
		})
		require.NoError(t, err)

		assert.NotZero(t, user.ID)
		assert.Equal(t, "google-1", user.ExternalID)
		assert.Equal(t, "access-1", user.AccessToken)
		assert.Equal(t, "refresh-1", user.RefreshToken)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("Upsert refreshes tokens on re-login", func(t *testing.T) {
		db := tu.NewTestDB(t)
		start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		repo := NewUserRepository(db).WithClock(tu.StepClock(start, time.Hour))

		first, err := repo.Upsert(ctx, models.LoginProfile{ExternalID: "google-1", AccessToken: "a1", RefreshToken: "r1"})
		require.NoError(t, err)

		second, err := repo.Upsert(ctx, models.LoginProfile{ExternalID: "google-1", Email: "new@example.com", AccessToken: "a2"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "a2", second.AccessToken)
		assert.Equal(t, "r1", second.RefreshToken, "empty refresh token keeps the stored one")
		assert.Equal(t, "new@example.com", second.Email)
		assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assert.Equal(t, 1, tu.CountRows(t, db, "users", ""))
	})

	t.Run("Upsert rejects invalid profile", func(t *testing.T) {
		db := tu.NewTestDB(t)
		_, err := NewUserRepository(db).Upsert(ctx, models.LoginProfile{AccessToken: "a"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("lookups", func(t *testing.T) {
		db := tu.NewTestDB(t)
		repo := NewUserRepository(db)
		id := tu.SeedUser(t, db, "google-7", "token-7")

		byID, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "google-7", byID.ExternalID)

		byExternal, err := repo.GetByExternalID(ctx, "google-7")
		require.NoError(t, err)
		assert.Equal(t, id, byExternal.ID)

		byToken, err := repo.GetByAccessToken(ctx, "token-7")
		require.NoError(t, err)
		assert.Equal(t, id, byToken.ID)

		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("not found", func(t *testing.T) {
		db := tu.NewTestDB(t)
		repo := NewUserRepository(db)

		_, err := repo.Get(ctx, 42)
		var nf *shared.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "user", nf.Resource)

		_, err = repo.GetByAccessToken(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.GetByAccessToken(ctx, "secret-token")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NotContains(t, err.Error(), "secret-token")
	})
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")
		repo := NewCategoryRepository(db)

		category, err := repo.Create(ctx, userID, "  Gaming ")
		require.NoError(t, err)

		assert.NotZero(t, category.ID)
		assert.Equal(t, userID, category.UserID)
		assert.Equal(t, "Gaming", category.Name)
		assert.False(t, category.CreatedAt.IsZero())
	})

	t.Run("blank name", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")

		_, err := NewCategoryRepository(db).Create(ctx, userID, "   ")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, 0, tu.CountRows(t, db, "categories", ""))
	})

	t.Run("uniqueness is per user", func(t *testing.T) {
		db := tu.NewTestDB(t)
		alice := tu.SeedUser(t, db, "alice", "ta")
		bob := tu.SeedUser(t, db, "bob", "tb")
		repo := NewCategoryRepository(db)

		_, err := repo.Create(ctx, alice, "Tech")
		require.NoError(t, err)

		_, err = repo.Create(ctx, alice, "Tech")
		var dup *shared.DuplicateNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Tech", dup.Name)
		assert.ErrorIs(t, err, shared.ErrDuplicateName)

		_, err = repo.Create(ctx, bob, "Tech")
		assert.NoError(t, err, "another user may reuse the name")

		_, err = repo.Create(ctx, alice, "tech")
		assert.NoError(t, err, "names are case-sensitive")

		assert.Equal(t, 2, tu.CountRows(t, db, "categories", "user_id = ?", alice))
	})

	t.Run("unknown user", func(t *testing.T) {
		db := tu.NewTestDB(t)
		_, err := NewCategoryRepository(db).Create(ctx, 999, "Orphan")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("ListForUser orders by creation", func(t *testing.T) {
		db := tu.NewTestDB(t)
		alice := tu.SeedUser(t, db, "alice", "ta")
		bob := tu.SeedUser(t, db, "bob", "tb")
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		repo := NewCategoryRepository(db).WithClock(tu.StepClock(start, time.Minute))

		for _, name := range []string{"Music", "Gaming", "News"} {
			_, err := repo.Create(ctx, alice, name)
			require.NoError(t, err)
		}
		_, err := repo.Create(ctx, bob, "Cooking")
		require.NoError(t, err)

		categories, err := repo.ListForUser(ctx, alice)
		require.NoError(t, err)
		require.Len(t, categories, 3)
		assert.Equal(t, "Music", categories[0].Name)
		assert.Equal(t, "Gaming", categories[1].Name)
		assert.Equal(t, "News", categories[2].Name)
		assert.True(t, categories[0].CreatedAt.Equal(start))
	})

	t.Run("ListForUser empty", func(t *testing.T) {
		db := tu.NewTestDB(t)
		categories, err := NewCategoryRepository(db).ListForUser(ctx, 1)
		require.NoError(t, err)
		assert.NotNil(t, categories)
		assert.Empty(t, categories)
	})

	t.Run("Get is owner scoped", func(t *testing.T) {
		db := tu.NewTestDB(t)
		alice := tu.SeedUser(t, db, "alice", "ta")
		bob := tu.SeedUser(t, db, "bob", "tb")
		repo := NewCategoryRepository(db)

		category, err := repo.Create(ctx, alice, "Gaming")
		require.NoError(t, err)

		got, err := repo.Get(ctx, alice, category.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gaming", got.Name)

		_, err = repo.Get(ctx, bob, category.ID)
		var nf *shared.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "category", nf.Resource)
		assert.Equal(t, category.ID, nf.ID)

		_, err = repo.Get(ctx, alice, category.ID+100)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSubscriptionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")
		category, err := NewCategoryRepository(db).Create(ctx, userID, "Music")
		require.NoError(t, err)

		repo := NewSubscriptionRepository(db)
		sub := &models.Subscription{
			UserID:           userID,
			ChannelID:        "UC_music",
			ChannelTitle:     "Music Channel",
			ChannelThumbnail: ptr("https://i.ytimg.com/m.jpg"),
			CategoryID:       &category.ID,
		}
		require.NoError(t, repo.Insert(ctx, sub))

		assert.NotZero(t, sub.ID)
		assert.False(t, sub.CreatedAt.IsZero())

		subs, err := repo.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, sub.ID, subs[0].ID)
		assert.Equal(t, "https://i.ytimg.com/m.jpg", subs[0].Thumbnail())
		require.NotNil(t, subs[0].CategoryName)
		assert.Equal(t, "Music", *subs[0].CategoryName)
	})

	t.Run("Insert uncategorized", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")
		repo := NewSubscriptionRepository(db)

		require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: userID, ChannelID: "UC1", ChannelTitle: "One"}))

		subs, err := repo.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Nil(t, subs[0].CategoryID)
		assert.Nil(t, subs[0].CategoryName)
		assert.Nil(t, subs[0].ChannelThumbnail)
	})

	t.Run("Insert duplicate channel", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")
		other := tu.SeedUser(t, db, "u2", "t2")
		repo := NewSubscriptionRepository(db)

		require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: userID, ChannelID: "UC1", ChannelTitle: "One"}))

		err := repo.Insert(ctx, &models.Subscription{UserID: userID, ChannelID: "UC1", ChannelTitle: "One again"})
		var already *shared.AlreadyCategorizedError
		require.ErrorAs(t, err, &already)
		assert.Equal(t, "UC1", already.ChannelID)

		assert.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: other, ChannelID: "UC1", ChannelTitle: "One"}))
	})

	t.Run("composite key rejects another user's category", func(t *testing.T) {
		db := tu.NewTestDB(t)
		alice := tu.SeedUser(t, db, "alice", "ta")
		bob := tu.SeedUser(t, db, "bob", "tb")
		bobs, err := NewCategoryRepository(db).Create(ctx, bob, "Bob's")
		require.NoError(t, err)

		err = NewSubscriptionRepository(db).Insert(ctx, &models.Subscription{
			UserID:       alice,
			ChannelID:    "UC1",
			ChannelTitle: "One",
			CategoryID:   &bobs.ID,
		})
		var invalid *shared.InvalidCategoryError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, bobs.ID, invalid.CategoryID)
		assert.Equal(t, 0, tu.CountRows(t, db, "subscriptions", ""))
	})

	t.Run("ListForUser newest first", func(t *testing.T) {
		db := tu.NewTestDB(t)
		userID := tu.SeedUser(t, db, "u1", "t1")
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		repo := NewSubscriptionRepository(db).WithClock(tu.StepClock(start, time.Second))

		for _, id := range []string{"A", "B", "C"} {
			require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: userID, ChannelID: id, ChannelTitle: id}))
		}

		subs, err := repo.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, subs, 3)
		assert.Equal(t, "C", subs[0].ChannelID)
		assert.Equal(t, "B", subs[1].ChannelID)
		assert.Equal(t, "A", subs[2].ChannelID)
	})

	t.Run("ListByCategory", func(t *testing.T) {
		db := tu.NewTestDB(t)
		alice := tu.SeedUser(t, db, "alice", "ta")
		bob := tu.SeedUser(t, db, "bob", "tb")
		categories := NewCategoryRepository(db)
		gaming, err := categories.Create(ctx, alice, "Gaming")
		require.NoError(t, err)
		music, err := categories.Create(ctx, alice, "Music")
		require.NoError(t, err)

		repo := NewSubscriptionRepository(db)
		require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: alice, ChannelID: "g1", ChannelTitle: "g1", CategoryID: &gaming.ID}))
		require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: alice, ChannelID: "m1", ChannelTitle: "m1", CategoryID: &music.ID}))
		require.NoError(t, repo.Insert(ctx, &models.Subscription{UserID: alice, ChannelID: "g2", ChannelTitle: "g2", CategoryID: &gaming.ID}))

		subs, err := repo.ListByCategory(ctx, alice, gaming.ID)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "g2", subs[0].ChannelID)
		assert.Equal(t, "g1", subs[1].ChannelID)

		foreign, err := repo.ListByCategory(ctx, bob, gaming.ID)
		require.NoError(t, err)
		assert.NotNil(t, foreign)
		assert.Empty(t, foreign)

		count, err := repo.CountForUser(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestRepositoryStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("category insert", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO categories`).
			WithArgs(int64(1), "Tech", sqlmock.AnyArg()).
			WillReturnError(boom)

		_, err := NewCategoryRepository(db).Create(ctx, 1, "Tech")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, shared.ErrDuplicateName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("category list", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`SELECT id, user_id, name, created_at`).WithArgs(int64(1)).WillReturnError(boom)

		_, err := NewCategoryRepository(db).ListForUser(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("category get", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`SELECT id, user_id, name, created_at`).WithArgs(int64(3), int64(1)).WillReturnError(boom)

		_, err := NewCategoryRepository(db).Get(ctx, 1, 3)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("subscription insert", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO subscriptions`).WillReturnError(boom)

		err := NewSubscriptionRepository(db).Insert(ctx, &models.Subscription{UserID: 1, ChannelID: "UC1", ChannelTitle: "One"})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, shared.ErrAlreadyCategorized)
	})

	t.Run("subscription list", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`FROM subscriptions s`).WithArgs(int64(1)).WillReturnError(boom)

		_, err := NewSubscriptionRepository(db).ListForUser(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("subscription list maps rows", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		created := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "user_id", "channel_id", "channel_title", "channel_thumbnail", "category_id", "created_at", "category_name"}).
			AddRow(int64(9), int64(1), "UC9", "Nine", nil, int64(2), created, "Music")
		mock.ExpectQuery(`FROM subscriptions s`).WithArgs(int64(1)).WillReturnRows(rows)

		subs, err := NewSubscriptionRepository(db).ListForUser(ctx, 1)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, int64(9), subs[0].ID)
		assert.Equal(t, "Music", subs[0].Category(""))
		require.NotNil(t, subs[0].CategoryID)
		assert.Equal(t, int64(2), *subs[0].CategoryID)
	})

	t.Run("user upsert", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(boom)

		_, err := NewUserRepository(db).Upsert(ctx, models.LoginProfile{ExternalID: "g", AccessToken: "t"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("postgres duplicate category name", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO categories`).WillReturnError(&pq.Error{Code: "23505"})

		_, err := NewCategoryRepository(db).Create(ctx, 1, "Tech")
		var dup *shared.DuplicateNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Tech", dup.Name)
	})

	t.Run("postgres duplicate subscription", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO subscriptions`).WillReturnError(&pq.Error{Code: "23505"})

		err := NewSubscriptionRepository(db).Insert(ctx, &models.Subscription{UserID: 1, ChannelID: "UC1", ChannelTitle: "One"})
		var already *shared.AlreadyCategorizedError
		require.ErrorAs(t, err, &already)
		assert.Equal(t, "UC1", already.ChannelID)
	})

	t.Run("postgres foreign category", func(t *testing.T) {
		db, mock := tu.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO subscriptions`).WillReturnError(&pq.Error{Code: "23503"})

		err := NewSubscriptionRepository(db).Insert(ctx, &models.Subscription{UserID: 1, ChannelID: "UC1", ChannelTitle: "One", CategoryID: ptr(int64(7))})
		var invalid *shared.InvalidCategoryError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, int64(7), invalid.CategoryID)
	})
}
