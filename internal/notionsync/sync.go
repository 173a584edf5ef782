package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
	"github.com/dmolina/cash-closure/internal/logger"
)

const (
	// storePageSize is how many closures to pull per store page.
	storePageSize = 100
)

// SyncClosures pushes every closed period not yet present in the Notion
// database. Pages are matched by the Closure ID property; closures are
// immutable so pages already present are never touched.
func SyncClosures(ctx context.Context, store closure.Store, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", dryRun).
		Msg("Starting closure sync to Notion")

	closures, err := listAllClosures(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to list closures: %w", err)
	}
	log.Info().Int("closure_count", len(closures)).Msg("Retrieved closures from store")

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]bool)
	for _, page := range notionPages {
		if id := extractClosureID(page); id != "" {
			existing[id] = true
		}
	}

	var created, skipped int
	for _, c := range closures {
		if existing[c.ID] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("closure_id", c.ID).
				Time("period_end", c.PeriodEnd).
				Msg("[DRY RUN] Would create Notion page for closure")
			created++
			continue
		}

		props := ClosureToNotionProperties(c)
		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().
				Err(err).
				Str("closure_id", c.ID).
				Msg("Failed to create Notion page for closure")
			continue
		}

		log.Info().
			Str("closure_id", c.ID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page for closure")
		created++
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(closures)).
		Msg("Closure sync completed")

	return nil
}

// listAllClosures pages through the store's closed records, oldest last.
func listAllClosures(ctx context.Context, store closure.Store) ([]*domain.CashClosure, error) {
	var all []*domain.CashClosure
	for page := 1; ; page++ {
		items, total, err := store.ListClosures(ctx, closure.Filter{
			Status:   domain.ClosureStatusClosed,
			Page:     page,
			PageSize: storePageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("listAllClosures: page %d: %w", page, err)
		}
		all = append(all, items...)
		if len(items) < storePageSize || len(all) >= total {
			return all, nil
		}
	}
}

// queryAllNotionPages queries all pages from a Notion database, following
// pagination cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
