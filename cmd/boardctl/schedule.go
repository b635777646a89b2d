package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wolfman30/herbal-board/internal/schedule"
)

func (c *cli) scheduleCmd() *cobra.Command {
	var (
		start   string
		period  int
		cadence string
		skips   []int
		today   string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the week grid for a treatment plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cad, ok := schedule.ParseCadence(cadence)
			if !ok {
				return fmt.Errorf("unsupported cadence %q", cadence)
			}
			if start != "" {
				if _, ok := schedule.ParseDate(start); !ok {
					return fmt.Errorf("invalid start date %q", start)
				}
			}
			now := c.now()
			if today != "" {
				t, ok := schedule.ParseDate(today)
				if !ok {
					return fmt.Errorf("invalid --today %q", today)
				}
				now = t
			}
			plan := schedule.Plan{
				Start:       start,
				VisitPeriod: period,
				Cadence:     cad,
				Skips:       schedule.NewWeekSet(skips...),
			}
			slots := schedule.BuildGrid(plan, schedule.NewAttendance(), nil, now)
			return printGrid(cmd.OutOrStdout(), plan, slots)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Treatment start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&period, "period", schedule.DefaultPeriodMonths, "Visit period in months")
	cmd.Flags().StringVar(&cadence, "cadence", schedule.DefaultCadence.String(), "Visit interval, e.g. \"2주에 1회\"")
	cmd.Flags().IntSliceVar(&skips, "skip", nil, "Week slots whose default is inverted")
	cmd.Flags().StringVar(&today, "today", "", "Evaluate the grid as of this date")
	return cmd
}

func printGrid(w io.Writer, plan schedule.Plan, slots []schedule.Slot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tCODE\tDATE\tSTATE\tNOTE")
	for _, s := range slots {
		if s.State == schedule.OutOfRange {
			continue
		}
		var notes []string
		if s.Current {
			notes = append(notes, "current")
		}
		if s.Overdue {
			notes = append(notes, "overdue")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(s.Index+1), s.Code, orDash(s.Date), s.State, strings.Join(notes, ","))
	}
	sum := schedule.Summarize(plan, slots)
	fmt.Fprintf(tw, "\ncadence %s, horizon %d weeks, %d due, %d skipped\n",
		plan.Cadence, sum.Horizon, sum.Due, sum.Skipped)
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
