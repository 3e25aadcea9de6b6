package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-phone-agent/internal/experiment"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

func newExperimentsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Compare agent variants by call quality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			calls, err := repository.NewCallRepo(db).ListScoredCalls(cmd.Context())
			if err != nil {
				return fmt.Errorf("load scored calls: %w", err)
			}
			report := experiment.Analyze(calls)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(out io.Writer, r experiment.Report) error {
	fmt.Fprintf(out, "%d scored calls\n\n", r.TotalCalls)
	if len(r.Variants) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tVARIANT\tCALLS\tOVERALL\tSTDDEV\tBOOKED\tP\tSIGNIFICANT")
	for _, v := range r.Variants {
		p, sig := "-", "-"
		if v.VsLeader != nil {
			p = fmt.Sprintf("%.2f", v.VsLeader.PValue)
			sig = fmt.Sprintf("%t", v.VsLeader.IsSignificant)
		}
		name := v.Variant
		if v.Winner {
			name += " *"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1f\t%.1f\t%.0f%%\t%s\t%s\n",
			v.Rank, name, v.Calls, v.MeanOverall, v.StdDevOverall, v.BookingRate*100, p, sig)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if leader := r.Variants[0]; !leader.Winner {
		fmt.Fprintf(out, "\nno winner yet: every variant needs %d calls\n", experiment.MinSamples)
	}
	return nil
}
