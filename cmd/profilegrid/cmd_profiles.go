package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"profilegrid/cmd/profilegrid/ui"
	"profilegrid/internal/collection"
	"profilegrid/internal/profile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listSearch string
	listSort   string
	listJSON   bool

	generateCount int
	clearYes      bool
)

// listCmd prints the stored collection
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long: `Prints the collection as a table, filtered by the persisted search term and
ordered by the persisted sort option. --search and --sort override both for
this listing only.

An empty collection is filled with the initial batch first, just like
opening the grid.

Sort options: nameAsc, nameDesc, countryAsc, countryDesc`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// showCmd prints one profile in full
var showCmd = &cobra.Command{
	Use:   "show [uuid]",
	Short: "Show the details of one profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// generateCmd adds single fetched profiles
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch and add new profiles one at a time",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

// moreCmd fetches the next page
var moreCmd = &cobra.Command{
	Use:   "more",
	Short: "Fetch the next page of profiles and append it",
	Args:  cobra.NoArgs,
	RunE:  runMore,
}

// deleteCmd removes profiles by uuid
var deleteCmd = &cobra.Command{
	Use:   "delete [uuid...]",
	Short: "Delete profiles by uuid",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

// clearCmd empties the collection
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored profile",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by name or country")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort option")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")

	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1, "Number of profiles to generate")

	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Confirm deleting every profile")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.Init(ctx); err != nil {
		return err
	}

	snap := a.manager.Snapshot()
	term, opt := snap.SearchTerm, snap.SortOption
	if cmd.Flags().Changed("search") {
		term = listSearch
	}
	if cmd.Flags().Changed("sort") {
		parsed, ok := profile.ParseSortOption(listSort)
		if !ok {
			return fmt.Errorf("unknown sort option %q", listSort)
		}
		opt = parsed
	}

	view := profile.Derive(a.manager.Profiles(), term, opt)
	logger.Debug("Listing profiles",
		zap.String("search", term),
		zap.String("sort", string(opt)),
		zap.Int("matches", view.Count))

	out := cmd.OutOrStdout()
	if listJSON {
		return writeJSON(out, view.Profiles)
	}
	title := fmt.Sprintf("Profiles (%d of %d, %s)", view.Count, snap.Total, opt.Label())
	fmt.Fprintln(out, ui.ProfileTable(title, view.Profiles).View(ui.DefaultStyles()))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.manager.Restore(ctx)
	p, ok := a.manager.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no profile with uuid %q", args[0])
	}

	renderer, err := ui.NewRenderer(80)
	if err != nil {
		logger.Debug("Markdown renderer unavailable", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMarkdown(renderer, ui.ProfileMarkdown(p)))
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.manager.Restore(ctx)

	var added []profile.Profile
	for i := 0; i < generateCount; i++ {
		got, err := a.manager.GenerateOne(ctx)
		if err != nil {
			return err
		}
		added = append(added, got...)
	}
	logger.Info("Generated profiles", zap.Int("count", len(added)))

	title := fmt.Sprintf("Added %d (collection: %d)", len(added), a.manager.Snapshot().Total)
	fmt.Fprintln(cmd.OutOrStdout(), ui.ProfileTable(title, added).View(ui.DefaultStyles()))
	return nil
}

func runMore(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	// Restoring sets the cursor to 1 for a non-empty list, so the next
	// page requested is 2, matching the grid after a restart.
	a.manager.Restore(ctx)

	added, err := a.manager.LoadMore(ctx, collection.TriggerButton)
	if err != nil {
		return err
	}
	snap := a.manager.Snapshot()
	logger.Info("Loaded more profiles", zap.Int("count", len(added)), zap.Int("page", snap.PageCursor))

	title := fmt.Sprintf("Page %d: added %d (collection: %d)", snap.PageCursor, len(added), snap.Total)
	fmt.Fprintln(cmd.OutOrStdout(), ui.ProfileTable(title, added).View(ui.DefaultStyles()))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.manager.Restore(ctx)

	var missing []string
	for _, id := range args {
		if a.manager.Delete(ctx, id) {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			continue
		}
		missing = append(missing, id)
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("no profile with uuid %s", missing[0])
	default:
		return fmt.Errorf("no profiles with uuids %s", strings.Join(missing, ", "))
	}
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to delete every profile without --yes")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.manager.Restore(ctx)
	total := a.manager.Snapshot().Total
	a.manager.DeleteAll(ctx)
	logger.Info("Cleared collection", zap.Int("removed", total))
	noun := "profiles"
	if total == 1 {
		noun = "profile"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s\n", total, noun)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
