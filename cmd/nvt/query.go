package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var stopsCmd = &cobra.Command{
	Use:   "stops [search]",
	Short: "List stops in the fused network, optionally filtered by name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStops,
}

var linesCmd = &cobra.Command{
	Use:   "lines [operator]",
	Short: "List lines, optionally for one operator",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLines,
}

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <stop-id>",
	Short: "Show scheduled arrivals at a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  runArrivals,
}

var arrivalLimit int

func init() {
	arrivalsCmd.Flags().IntVarP(&arrivalLimit, "limit", "n", 10, "maximum number of arrivals")
}

func runStops(cmd *cobra.Command, args []string) error {
	store, _, _, err := buildEngine(context.Background())
	if err != nil {
		return err
	}

	search := ""
	if len(args) == 1 {
		search = strings.ToLower(args[0])
	}

	for _, stop := range store.Stops() {
		if search != "" && !strings.Contains(strings.ToLower(stop.StopName), search) {
			continue
		}
		fmt.Printf("%-12s %-40s %9.5f %9.5f  %d lines\n",
			stop.StopID, stop.StopName, stop.Latitude, stop.Longitude, len(stop.Lines))
	}
	return nil
}

func runLines(cmd *cobra.Command, args []string) error {
	store, _, _, err := buildEngine(context.Background())
	if err != nil {
		return err
	}

	lines := store.Lines()
	if len(args) == 1 {
		lines = store.LinesByOperator(args[0])
	}

	for _, line := range lines {
		fmt.Printf("%-8s %-35s %-13s #%s\n",
			line.LineCode, line.LineName, line.Operator, line.Color)
	}
	return nil
}

func runArrivals(cmd *cobra.Command, args []string) error {
	store, _, _, err := buildEngine(context.Background())
	if err != nil {
		return err
	}

	arrivals := store.StopArrivals(args[0], arrivalLimit)
	if len(arrivals) == 0 {
		fmt.Println("no upcoming arrivals")
		return nil
	}

	for _, a := range arrivals {
		fmt.Printf("%-10s %-8s %-30s %s\n",
			a.ArrivalTime, a.LineCode, a.Destination, a.Operator)
	}
	return nil
}
