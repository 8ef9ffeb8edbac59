package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/dashboard"
	"github.com/hyperengineering/kennel/internal/fallback"
)

func newDashboardCmd(g *globals) *cobra.Command {
	var days, limit int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the kennel summary, upcoming events and recent activity",
		Long:  "Show the dashboard widgets. Widgets whose endpoint the server does not provide show their empty default.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.tree.Navigate(cmd.Context(), "/dashboard"); err != nil {
				return err
			}
			svc := dashboard.New(fallback.ForClient(s.client, s.logger))
			snap, loadErr := svc.Load(cmd.Context(), days, limit)

			if g.json {
				if err := printJSON(cmd.OutOrStdout(), snap); err != nil {
					return err
				}
			} else if err := printSnapshot(cmd.OutOrStdout(), snap); err != nil {
				return err
			}
			return loadErr
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Upcoming event window in days (0 = server default)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Recent activity entries (0 = server default)")
	return cmd
}

func printSnapshot(out io.Writer, snap dashboard.Snapshot) error {
	sum := snap.Summary
	w := newTabWriter(out)
	fmt.Fprintf(w, "Dogs:\t%d\n", sum.TotalDogs)
	fmt.Fprintf(w, "Active litters:\t%d\n", sum.ActiveLitters)
	fmt.Fprintf(w, "Upcoming heats:\t%d\n", sum.UpcomingHeats)
	fmt.Fprintf(w, "Puppies available:\t%d\n", sum.AvailablePuppies)
	fmt.Fprintf(w, "Puppies reserved:\t%d\n", sum.ReservedPuppies)
	fmt.Fprintf(w, "Revenue:\t%s\n", sum.Revenue.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if len(snap.Upcoming) == 0 {
		fmt.Fprintln(out, "No upcoming events.")
	} else {
		w = newTabWriter(out)
		fmt.Fprintln(w, "WHEN\tTYPE\tEVENT")
		for _, e := range snap.Upcoming {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.StartsAt.Format("2006-01-02 15:04"), e.EventType, e.Title)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	if len(snap.Activity) == 0 {
		fmt.Fprintln(out, "No recent activity.")
		return nil
	}
	w = newTabWriter(out)
	fmt.Fprintln(w, "WHEN\tACTION\tDESCRIPTION")
	for _, a := range snap.Activity {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Action, a.Description)
	}
	return w.Flush()
}
