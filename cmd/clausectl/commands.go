package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

var filterFlags struct {
	ownerID   int64
	ownerName string
	position  string
	teamID    int64
}

var upcomingFlags struct {
	maxHours   float64
	futureOnly bool
}

var summaryTop int

func init() {
	for _, cmd := range []*cobra.Command{upcomingCmd, unlockedCmd, openedTodayCmd} {
		cmd.Flags().Int64Var(&filterFlags.ownerID, "owner-id", 0, "only players of this owner id")
		cmd.Flags().StringVar(&filterFlags.ownerName, "owner", "", "only players of this owner name")
		cmd.Flags().StringVar(&filterFlags.position, "position", "", "only this position (GK, DEF, MID, FWD)")
		cmd.Flags().Int64Var(&filterFlags.teamID, "team-id", 0, "only players of this team id")
	}
	upcomingCmd.Flags().Float64Var(&upcomingFlags.maxHours, "max-hours", 48, "hours ahead to include")
	upcomingCmd.Flags().BoolVar(&upcomingFlags.futureOnly, "future-only", false, "exclude clauses already unlocked")
	summaryCmd.Flags().IntVar(&summaryTop, "top", usecase.DefaultTopPlayers, "number of top players by value")

	rootCmd.AddCommand(refreshCmd, upcomingCmd, unlockedCmd, openedTodayCmd, executedCmd, summaryCmd, keysCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a new fetch cycle and report what was loaded",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		snap, meta, err := rt.Dashboard.ForceRefresh(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), meta)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "league:       %s (%d)\n", snap.League.Name, snap.League.ID)
		fmt.Fprintf(out, "owners:       %d\n", len(snap.Owners))
		fmt.Fprintf(out, "players:      %d\n", len(snap.Roster))
		fmt.Fprintf(out, "transactions: %d\n", len(snap.Transactions))
		renderMeta(out, meta, rt.Config.LeagueLocation)
		return nil
	},
}

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List owned players whose clause unlocks soon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := rosterFilter()
		if err != nil {
			return err
		}
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, meta, err := rt.Dashboard.Upcoming(cmd.Context(), usecase.UpcomingQuery{
			MaxHours:   upcomingFlags.maxHours,
			FutureOnly: upcomingFlags.futureOnly,
			Filter:     filter,
		})
		if err != nil {
			return err
		}
		return renderView(cmd.OutOrStdout(), entries, meta, rt.Config.LeagueLocation)
	},
}

var unlockedCmd = &cobra.Command{
	Use:   "unlocked",
	Short: "List owned players whose clause can already be paid",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := rosterFilter()
		if err != nil {
			return err
		}
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, meta, err := rt.Dashboard.Unlocked(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return renderView(cmd.OutOrStdout(), entries, meta, rt.Config.LeagueLocation)
	},
}

var openedTodayCmd = &cobra.Command{
	Use:   "opened-today",
	Short: "List clauses unlocking on the current league day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := rosterFilter()
		if err != nil {
			return err
		}
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		entries, meta, err := rt.Dashboard.OpenedToday(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return renderView(cmd.OutOrStdout(), entries, meta, rt.Config.LeagueLocation)
	},
}

var executedCmd = &cobra.Command{
	Use:   "executed",
	Short: "Count clauses executed against each owner in the trailing window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		rows, meta, err := rt.Dashboard.Executed(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), rows)
		}
		renderExecuted(cmd.OutOrStdout(), rows)
		renderMeta(cmd.OutOrStdout(), meta, rt.Config.LeagueLocation)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Market value per owner and team, plus the most valuable players",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if summaryTop < 0 {
			return fmt.Errorf("%w: --top must be >= 0", usecase.ErrInvalidInput)
		}
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		summary, meta, err := rt.Dashboard.Summary(cmd.Context(), summaryTop)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), summary)
		}
		renderSummary(cmd.OutOrStdout(), summary)
		renderMeta(cmd.OutOrStdout(), meta, rt.Config.LeagueLocation)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the refresh keys in effect now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		keys := rt.Dashboard.Keys()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), keys)
		}
		renderKeys(cmd.OutOrStdout(), keys, rt.Config.LeagueLocation)
		return nil
	},
}

func rosterFilter() (roster.Filter, error) {
	filter := roster.Filter{
		OwnerID:   filterFlags.ownerID,
		OwnerName: strings.TrimSpace(filterFlags.ownerName),
		TeamID:    filterFlags.teamID,
	}
	if filterFlags.position != "" {
		pos, err := player.ParsePosition(filterFlags.position)
		if err != nil {
			return roster.Filter{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
		}
		filter.Position = pos
	}
	return filter, nil
}

func renderView(w io.Writer, entries []roster.Entry, meta usecase.Meta, loc *time.Location) error {
	if jsonOutput {
		return writeJSON(w, entries)
	}
	renderEntries(w, entries, loc)
	renderMeta(w, meta, loc)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func renderEntries(w io.Writer, entries []roster.Entry, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no players match")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tPOS\tTEAM\tOWNER\tCLAUSE\tUNLOCKS\tHOURS")
	for _, item := range entries {
		clauseValue, unlocks := "-", "-"
		if o := item.Ownership; o != nil {
			clauseValue = formatMoney(o.ClauseValue)
			unlocks = formatInstant(o.ClauseUnlockAt, loc)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Player.Name,
			positionLabel(item.Player.Position),
			teamLabel(item.Player),
			stringOr(item.OwnerName, "-"),
			clauseValue,
			unlocks,
			formatHours(item.HoursRemaining),
		)
	}
	_ = tw.Flush()
}

func renderExecuted(w io.Writer, rows []usecase.ExecutedCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OWNER\tEXECUTED\tSHOWN\tREMAINING")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", row.OwnerName, row.Count, row.Displayed, row.Remaining)
	}
	_ = tw.Flush()
}

func renderSummary(w io.Writer, s usecase.Summary) {
	fmt.Fprintf(w, "owned players: %d of %d, owners: %d\n\n", s.TotalPlayers, s.CatalogPlayers, s.TotalOwners)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OWNER\tPLAYERS\tVALUE")
	for _, item := range s.ValueByOwner {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", item.OwnerName, item.Players, formatMoney(item.TotalValue))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tPLAYERS\tVALUE")
	for _, item := range s.ValueByTeam {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", item.TeamName, item.Players, formatMoney(item.TotalValue))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOP PLAYER\tOWNER\tVALUE")
	for _, item := range s.TopPlayers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Player.Name, stringOr(item.OwnerName, "-"), formatMoney(item.Player.MarketValue))
	}
	_ = tw.Flush()

	if s.MostExpensive != nil && s.LeastExpensive != nil {
		fmt.Fprintf(w, "\nmost expensive:  %s (%s)\n", s.MostExpensive.Player.Name, formatMoney(s.MostExpensive.Player.MarketValue))
		fmt.Fprintf(w, "least expensive: %s (%s)\n", s.LeastExpensive.Player.Name, formatMoney(s.LeastExpensive.Player.MarketValue))
	}
}

func renderKeys(w io.Writer, keys refreshkey.Keys, loc *time.Location) {
	fmt.Fprintf(w, "cycle:       %s\n", keys.Cycle)
	fmt.Fprintf(w, "cycle start: %s\n", formatInstant(&keys.CycleStart, loc))
	fmt.Fprintf(w, "daily:       %s\n", keys.Daily)
}

func renderMeta(w io.Writer, meta usecase.Meta, loc *time.Location) {
	state := "fresh"
	if meta.Stale {
		state = "stale"
	}
	fmt.Fprintf(w, "\nsnapshot %s fetched %s (%s)\n", meta.RefreshKey, formatInstant(&meta.FetchedAt, loc), state)
	for _, failure := range meta.FailedOwners {
		fmt.Fprintf(w, "  owner %s (%d) not loaded: %s\n", failure.OwnerName, failure.OwnerID, failure.Reason)
	}
	if skipped := meta.Report.SkippedPlayers + meta.Report.SkippedOwnerships + meta.Report.SkippedTransactions + meta.Report.SkippedOwners; skipped > 0 {
		fmt.Fprintf(w, "  %d malformed records skipped\n", skipped)
	}
}
