package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	app "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

func topCmd(flags *globalFlags) *cobra.Command {
	var (
		rawPeriod string
		limit     int
		bubbling  bool
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the chart of one period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := period.Parse(rawPeriod)
			if err != nil {
				return err
			}
			return runWithService(cmd, flags, func(ctx context.Context, svc *app.Service) error {
				view := svc.TopN
				if bubbling {
					view = svc.BubblingUnder
				}
				entries, err := view(ctx, nil, flags.gameID, p, limit)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&rawPeriod, "period", "", "Period, e.g. 2024-06-01 or 2024-06")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	cmd.Flags().BoolVar(&bubbling, "bubbling", false, "List tracked releases that missed the chart")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var itemID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the chart history of one release",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, flags, func(ctx context.Context, svc *app.Service) error {
				return printStats(cmd.OutOrStdout(), svc.ItemChart(ctx, nil, flags.gameID, itemID))
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "Release id")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func printEntries(out io.Writer, entries []chart.Entry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tID\tNAME\tARTIST\tPERFORMANCE\tMOVE\t")
	for _, e := range entries {
		id := e.ItemID
		if e.IsCompetitor {
			id = e.CompetitorID
		}
		move := strconv.Itoa(e.Movement)
		if e.IsDebut {
			move = "NEW"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t\n", position(e.Position), id, e.Name, e.Artist, e.Performance, move)
	}
	return tw.Flush()
}

func printStats(out io.Writer, st chart.Stats) error {
	fmt.Fprintf(out, "item %s  current=%s peak=%s weeks=%d movement=%d debut=%t\n",
		st.ItemID, position(st.CurrentPosition), position(st.PeakPosition), st.WeeksCharted, st.Movement, st.IsDebut)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tPOS\tPERFORMANCE\tMOVE\t")
	for _, r := range st.History {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\n", r.Period, position(r.Position), r.Performance, r.Movement)
	}
	return tw.Flush()
}

func position(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
