package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"jizdninerad.cz/internal/app"
	"jizdninerad.cz/internal/board"
	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/golemio"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/models"
)

type departuresOptions struct {
	stops    string
	date     string
	time     string
	timeFrom string
	asJSON   bool
}

func newDeparturesCmd(root *rootOptions) *cobra.Command {
	opts := &departuresOptions{}

	cmd := &cobra.Command{
		Use:   "departures [stop name...]",
		Short: "Lists departures from the given stops within the next 30 minutes",
		Long: `Lists departures from the given stops within the next 30 minutes.

Stops are taken from the arguments, else from --stops (separated by ";"),
else from the configured defaults. Without --date/--time or --time-from the
board starts now, rounded down to five minutes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDepartures(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.stops, "stops", "s", "", `Stop names separated by ";"`)
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Date, YYYY-MM-DD or DD.MM.YYYY")
	cmd.Flags().StringVarP(&opts.time, "time", "t", "", "Time of day, HH:MM")
	cmd.Flags().StringVar(&opts.timeFrom, "time-from", "", "Start time as RFC 3339, overrides --date and --time")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func (o *departuresOptions) values(args []string) url.Values {
	values := url.Values{}
	for _, name := range args {
		values.Add("names", name)
	}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("stops", o.stops)
	set("date", o.date)
	set("time", o.time)
	set("timeFrom", o.timeFrom)
	return values
}

func runDepartures(cmd *cobra.Command, root *rootOptions, opts *departuresOptions, args []string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Options{Verbose: cfg.Verbose, Output: root.logOutput()})
	client, err := golemio.NewClient(golemio.Config{
		BaseURL:     cfg.Golemio.BaseURL,
		AccessToken: cfg.Golemio.AccessToken,
		Timeout:     cfg.Golemio.Timeout,
	}, logger, nil)
	if err != nil {
		return err
	}

	coreApp := &app.Application{
		Config:     cfg,
		Logger:     logger,
		Clock:      clock.RealClock{},
		Location:   cfg.Location(),
		Departures: departures.NewService(client, logger, nil),
	}

	q, fieldErrors := coreApp.QueryFromValues(opts.values(args))
	if len(fieldErrors) > 0 {
		return fieldErrorsToError(fieldErrors)
	}

	records, err := coreApp.Departures.Lookup(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.NewDepartureBoard(q, records, coreApp.Zone()))
	}

	board.WriteTable(out, records, coreApp.Zone())
	return nil
}

func fieldErrorsToError(fieldErrors map[string][]string) error {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(fieldErrors[field], ", "))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}
