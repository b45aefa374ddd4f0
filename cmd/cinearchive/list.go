package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/view"
	"github.com/spf13/cobra"
)

type listOptions struct {
	kind   string
	status string
	search string
	sort   string
	page   int
}

func newListCommand(opts *rootOptions) *cobra.Command {
	listOpts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.waitForSnapshot(ctx, 5*time.Second); err != nil {
				return err
			}

			page := view.Derive(a.store.Records(), listOpts.state())
			fmt.Fprintln(cmd.OutOrStdout(), renderPage(page))
			return nil
		},
	}

	cmd.Flags().StringVar(&listOpts.kind, "type", "all", "Filter by kind: all, movie, series")
	cmd.Flags().StringVar(&listOpts.status, "status", "all", "Filter by status: all, watching, towatch, watched, favorites")
	cmd.Flags().StringVarP(&listOpts.search, "search", "q", "", "Case-insensitive title search")
	cmd.Flags().StringVar(&listOpts.sort, "sort", "index_desc", "Sort: index_desc, index_asc, rating")
	cmd.Flags().IntVarP(&listOpts.page, "page", "p", 1, "Page number")

	return cmd
}

func (o *listOptions) state() view.State {
	return view.State{
		Type:       view.ParseTypeFilter(o.kind),
		Status:     view.ParseStatusFilter(o.status),
		SearchText: o.search,
		Sort:       view.ParseSortKey(o.sort),
		PageIndex:  o.page,
	}
}

func renderPage(page view.Page) string {
	if page.Total == 0 {
		return "No records."
	}

	rows := make([][]string, 0, len(page.Records))
	for _, r := range page.Records {
		rows = append(rows, []string{
			strconv.Itoa(r.Ordinal),
			r.Title,
			string(r.MediaKind),
			string(r.Status),
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			progressLabel(r),
			favoriteLabel(r.IsFavorite),
		})
	}

	table := renderTable(
		[]string{"#", "Title", "Kind", "Status", "Rating", "Progress", "Fav"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
	return fmt.Sprintf("%s\nPage %d of %d (%d records)", table, page.PageIndex, page.PageCount, page.Total)
}

func progressLabel(r models.Record) string {
	if !r.IsSeries() {
		return "-"
	}
	return fmt.Sprintf("S%02dE%02d", r.CurrentSeason, r.CurrentEpisode)
}

func favoriteLabel(favorite bool) string {
	if favorite {
		return "*"
	}
	return ""
}
