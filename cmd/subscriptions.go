package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/formatter"
	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
	"github.com/desertthunder/ytcat/internal/ui"
)

// SubscriptionsFetch fetches the complete subscription list and marks which channels are already filed.
func (r *Runner) SubscriptionsFetch(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	r.logger.Info("fetching subscriptions", "user", user.ExternalID)
	statuses, err := tasks.NewOverview(r.subscriptionSource(), s.query).Build(ctx, user.Credentials())
	if err != nil {
		return err
	}

	if cmd.Bool("uncategorized") {
		filtered := make([]tasks.SubscriptionStatus, 0, len(statuses))
		for _, st := range statuses {
			if !st.Categorized {
				filtered = append(filtered, st)
			}
		}
		statuses = filtered
	}

	if cmd.Bool("json") {
		return r.writeJSON(statuses, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Subscriptions (%d)", len(statuses)))
	for _, st := range statuses {
		if st.Categorized {
			category := formatter.UncategorizedLabel
			if st.CategoryName != nil {
				category = *st.CategoryName
			}
			r.writePlain("%s %s %s %s\n", ui.Styles.OK("✓"), st.Title, ui.Styles.Help("["+st.ChannelID+"]"), ui.Styles.Label(category))
			continue
		}
		r.writePlain("%s %s %s\n", ui.Styles.Help("·"), st.Title, ui.Styles.Help("["+st.ChannelID+"]"))
	}
	return nil
}

// SubscriptionsCategorize files one channel under a category, or records it uncategorized without --category.
func (r *Runner) SubscriptionsCategorize(ctx context.Context, cmd *cli.Command) error {
	channelID := strings.TrimSpace(cmd.StringArg("channel_id"))
	if channelID == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}

	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	req := tasks.CategorizeRequest{
		ChannelID:        channelID,
		ChannelTitle:     cmd.String("title"),
		ChannelThumbnail: cmd.String("thumbnail"),
	}

	var category *models.Category
	if ref := cmd.String("category"); ref != "" {
		id, found, err := resolveCategory(ctx, s.query, user.ID, ref)
		if err != nil {
			return err
		}
		req.CategoryID = &id
		category = found
	}

	if cmd.Bool("lookup") {
		if err := r.lookupChannel(ctx, user, &req); err != nil {
			return err
		}
	}

	sub, err := s.categorizer.Categorize(ctx, user.Credentials(), req)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sub, cmd.Bool("pretty"))
	}

	label := formatter.UncategorizedLabel
	if category != nil {
		label = category.Name
	}
	return r.writePlain("%s Filed %s under %s\n", ui.Styles.OK("✓"), sub.ChannelTitle, ui.Styles.Label(label))
}

// lookupChannel fills in title and thumbnail from the live subscription list when they were not given.
func (r *Runner) lookupChannel(ctx context.Context, user *models.User, req *tasks.CategorizeRequest) error {
	items, err := r.subscriptionSource().FetchAll(ctx, user.Credentials())
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.ChannelID != req.ChannelID {
			continue
		}
		if req.ChannelTitle == "" {
			req.ChannelTitle = item.Title
		}
		if req.ChannelThumbnail == "" {
			req.ChannelThumbnail = item.ThumbnailURL
		}
		return nil
	}

	r.logger.Warn("channel is not in the subscription list", "channel_id", req.ChannelID, "subscriptions", len(items))
	return nil
}

// SubscriptionsList prints the user's records grouped by category, or the records of one category.
func (r *Runner) SubscriptionsList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	if ref := cmd.String("category"); ref != "" {
		id, category, err := resolveCategory(ctx, s.query, user.ID, ref)
		if err != nil {
			return err
		}

		subs, err := s.query.ListByCategory(ctx, user.ID, id)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(subs, cmd.Bool("pretty"))
		}

		title := ref
		if category != nil {
			title = category.Name
		}
		r.writePlainHeader(fmt.Sprintf("%s (%d)", title, len(subs)))
		for i, sub := range subs {
			r.writePlain("%3d. %s %s\n", i+1, sub.ChannelTitle, ui.Styles.Help("["+sub.ChannelID+"]"))
		}
		return nil
	}

	groups, err := s.query.Grouped(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(groups, cmd.Bool("pretty"))
	}

	for _, g := range groups {
		name := formatter.UncategorizedLabel
		if g.Category != nil {
			name = g.Category.Name
		}
		if g.Category == nil && len(g.Subscriptions) == 0 {
			continue
		}

		r.writePlainHeader(fmt.Sprintf("%s (%d)", name, len(g.Subscriptions)))
		for i, sub := range g.Subscriptions {
			r.writePlain("%3d. %s %s\n", i+1, sub.ChannelTitle, ui.Styles.Help("["+sub.ChannelID+"]"))
		}
		r.writePlain("\n")
	}
	return nil
}

// SubscriptionsExport writes the grouped records to a file in the requested format.
func (r *Runner) SubscriptionsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	groups, err := s.query.Grouped(ctx, user.ID)
	if err != nil {
		return err
	}

	owner := user.Email
	if owner == "" {
		owner = user.ExternalID
	}
	export := formatter.NewExport(owner, groups)

	path, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported subscriptions", "path", path, "format", format, "channels", export.Count())
	return r.writePlain("%s Exported %d channels to %s\n", ui.Styles.OK("✓"), export.Count(), path)
}

// SubscriptionsImport categorizes every row of a CSV file. Rows that fail are reported and skipped.
func (r *Runner) SubscriptionsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: CSV path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := formatter.ParseCSV(f)
	if err != nil {
		return err
	}

	s, err := r.stores()
	if err != nil {
		return err
	}
	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	categories, err := r.importCategories(ctx, s, user.ID, rows, cmd.Bool("create-categories"))
	if err != nil {
		return err
	}

	reqs := make([]tasks.CategorizeRequest, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		req := tasks.CategorizeRequest{
			ChannelID:        row.ChannelID,
			ChannelTitle:     row.Title,
			ChannelThumbnail: row.Thumbnail,
		}
		if name := strings.TrimSpace(row.Category); name != "" {
			category, err := matchCategory(categories, name)
			if err != nil {
				r.writePlain("%s line %d %s: %v\n", ui.Styles.Err("✗"), row.Line, row.ChannelID, err)
				skipped++
				continue
			}
			if category == nil {
				r.logger.Warn("skipping row with unknown category", "line", row.Line, "channel_id", row.ChannelID, "category", name)
				skipped++
				continue
			}
			id := category.ID
			req.CategoryID = &id
		}
		reqs = append(reqs, req)
	}

	progress := make(chan tasks.ProgressUpdate, len(reqs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Err != nil {
				r.logger.Debug("import row failed", "step", update.Step, "total", update.Total, "channel_id", update.ChannelID, "error", update.Err)
				continue
			}
			r.logger.Debug("import row done", "step", update.Step, "total", update.Total, "channel_id", update.ChannelID)
		}
	}()

	results, err := s.categorizer.CategorizeAll(ctx, user.Credentials(), reqs, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	imported, existing, failed := 0, 0, 0
	for _, res := range results {
		switch {
		case res.Err == nil:
			imported++
		case errors.Is(res.Err, shared.ErrAlreadyCategorized):
			existing++
		default:
			failed++
			r.writePlain("%s %s: %v\n", ui.Styles.Err("✗"), res.Request.ChannelID, res.Err)
		}
	}

	r.logger.Info("import finished", "path", path, "imported", imported, "existing", existing, "failed", failed, "skipped", skipped)
	return r.writePlain("%s Imported %d, already categorized %d, failed %d, skipped %d\n",
		ui.Styles.OK("✓"), imported, existing, failed, skipped)
}

// importCategories returns the user's categories. When create is set, every category named in rows
// without an exact match is created first, so "tech" is never folded into an existing "Tech".
func (r *Runner) importCategories(ctx context.Context, s *stores, userID int64, rows []formatter.ImportRow, create bool) ([]models.Category, error) {
	categories, err := s.query.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !create {
		return categories, nil
	}

	for _, row := range rows {
		name := strings.TrimSpace(row.Category)
		if name == "" || hasCategory(categories, name) {
			continue
		}

		category, err := s.categories.Create(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
		r.logger.Info("created category", "name", category.Name, "id", category.ID)
		categories = append(categories, *category)
	}
	return categories, nil
}

func hasCategory(categories []models.Category, name string) bool {
	for _, c := range categories {
		if c.Name == name {
			return true
		}
	}
	return false
}
