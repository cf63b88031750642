package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/ytcat/internal/shared"
)

func TestValidate(t *testing.T) {
	tc := []struct {
		name    string
		model   Model
		wantErr error
	}{
		{"user ok", &User{ExternalID: "g-1"}, nil},
		{"user missing external id", &User{ExternalID: "  "}, shared.ErrInvalidInput},
		{"category ok", &Category{UserID: 1, Name: "Gaming"}, nil},
		{"category missing owner", &Category{Name: "Gaming"}, shared.ErrInvalidInput},
		{"category blank name", &Category{UserID: 1, Name: " \t"}, shared.ErrInvalidInput},
		{"subscription ok", &Subscription{UserID: 1, ChannelID: "UC1", ChannelTitle: "One"}, nil},
		{"subscription missing channel", &Subscription{UserID: 1, ChannelTitle: "One"}, shared.ErrInvalidInput},
		{"subscription missing title", &Subscription{UserID: 1, ChannelID: "UC1"}, shared.ErrInvalidInput},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Run("from user", func(t *testing.T) {
		u := &User{ID: 4, AccessToken: "tok"}
		creds := u.Credentials()
		if creds.UserID != 4 || creds.AccessToken != "tok" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		if err := creds.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if err := (Credentials{UserID: 1}).Validate(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if err := (Credentials{AccessToken: "tok"}).Validate(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestLoginProfile(t *testing.T) {
	if err := (LoginProfile{ExternalID: "g", AccessToken: "t"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (LoginProfile{AccessToken: "t"}).Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := (LoginProfile{ExternalID: "g"}).Validate(); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAccessors(t *testing.T) {
	thumb := "https://i.ytimg.com/a.jpg"
	name := "Music"

	s := CategorizedSubscription{Subscription: Subscription{ChannelThumbnail: &thumb}, CategoryName: &name}
	if s.Thumbnail() != thumb {
		t.Errorf("expected thumbnail %s, got %s", thumb, s.Thumbnail())
	}
	if s.Category("Uncategorized") != "Music" {
		t.Errorf("expected Music, got %s", s.Category("Uncategorized"))
	}

	var empty CategorizedSubscription
	if empty.Thumbnail() != "" || empty.Category("Uncategorized") != "Uncategorized" {
		t.Error("expected fallbacks for empty subscription")
	}
}
