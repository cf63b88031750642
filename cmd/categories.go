package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
	"github.com/desertthunder/ytcat/internal/ui"
)

// CategoriesCreate creates a category for the current user.
func (r *Runner) CategoriesCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: category name", shared.ErrMissingArgument)
	}

	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	category, err := s.categories.Create(ctx, user.ID, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(category, cmd.Bool("pretty"))
	}
	return r.writePlain("%s Created category %s (id %d)\n", ui.Styles.OK("✓"), ui.Styles.Label(category.Name), category.ID)
}

// CategoriesList lists the current user's categories with how many channels each holds.
func (r *Runner) CategoriesList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		categories, err := s.query.ListCategories(ctx, user.ID)
		if err != nil {
			return err
		}
		return r.writeJSON(categories, cmd.Bool("pretty"))
	}

	groups, err := s.query.Grouped(ctx, user.ID)
	if err != nil {
		return err
	}

	r.writePlainHeader("Categories")
	count := 0
	for _, g := range groups {
		if g.Category == nil {
			continue
		}
		count++
		r.writePlain("%4d  %s %s\n", g.Category.ID, ui.Styles.Label(g.Category.Name), ui.Styles.Help(fmt.Sprintf("(%d)", len(g.Subscriptions))))
	}
	if count == 0 {
		return r.writePlain("%s\n", ui.Styles.Help("No categories yet, create one with 'ytcat categories create <name>'"))
	}
	return nil
}

// matchCategory finds the category called name: an exact match wins, otherwise a
// case-insensitive match is used when it is the only one. Names that differ only by case are
// distinct categories, so a folded match against several of them fails with [shared.ErrInvalidArgument].
//
// It returns nil when nothing matches.
func matchCategory(categories []models.Category, name string) (*models.Category, error) {
	for i := range categories {
		if categories[i].Name == name {
			return &categories[i], nil
		}
	}

	var found *models.Category
	for i := range categories {
		if !strings.EqualFold(categories[i].Name, name) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: category %q is ambiguous, it matches %q and %q; use the exact name or the id",
				shared.ErrInvalidArgument, name, found.Name, categories[i].Name)
		}
		found = &categories[i]
	}
	return found, nil
}

// resolveCategory finds one of the user's categories by name, or by id when no name matches.
//
// An id that is not the user's is passed through unresolved so the categorizer rejects it.
func resolveCategory(ctx context.Context, query *tasks.QueryService, userID int64, ref string) (int64, *models.Category, error) {
	ref = strings.TrimSpace(ref)

	categories, err := query.ListCategories(ctx, userID)
	if err != nil {
		return 0, nil, err
	}

	match, err := matchCategory(categories, ref)
	if err != nil {
		return 0, nil, err
	}
	if match != nil {
		return match.ID, match, nil
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, nil, &shared.NotFoundError{Resource: "category", ID: ref}
	}
	for i := range categories {
		if categories[i].ID == id {
			return id, &categories[i], nil
		}
	}
	return id, nil, nil
}
