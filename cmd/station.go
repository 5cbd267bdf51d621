package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	stationLimit int
	stationURLs  bool
)

var stationCmd = &cobra.Command{
	Use:   "station ID",
	Short: "Play through a station's queue",
	Long: `Create a station queue and list its upcoming tracks.

Stations never run out; --limit bounds how many tracks are listed. More
tracks are requested ten at a time as the list runs past the first batch.

Example:
  amzn station A2UW0MECRAWILL --limit 30`,
	Args: cobra.ExactArgs(1),
	RunE: runStation,
}

func init() {
	rootCmd.AddCommand(stationCmd)
	stationCmd.Flags().IntVarP(&stationLimit, "limit", "n", 20, "Number of tracks to list")
	stationCmd.Flags().BoolVar(&stationURLs, "urls", false, "Print the stream URL of every track")
}

func runStation(cmd *cobra.Command, args []string) error {
	if stationLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", stationLimit)
	}

	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	station, err := s.client.Station(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}

	out := cmd.OutOrStdout()
	printStationHeader(out, station)

	printer := &trackPrinter{w: out, width: s.cfg.OutputWidth, urls: stationURLs}
	tracks := station.Tracks()
	for i := 0; i < stationLimit && tracks.Next(ctx); i++ {
		if err := printer.print(ctx, i, tracks.Item()); err != nil {
			return err
		}
	}
	if err := tracks.Err(); err != nil {
		return fmt.Errorf("failed to load station tracks: %w", err)
	}
	return nil
}
