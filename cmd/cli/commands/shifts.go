package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/core/services"
)

// StartShiftCmd creates the startShift command
func StartShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "startShift <site>",
		Short: "Open a shift at a site for the logged-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := app.Identity()
			if err != nil {
				return err
			}

			date, clock := services.Now(app.now(), app.Cfg.Location())
			app.Logger.Debug("startShift command", zap.String("site", args[0]), zap.String("user", identity.User))

			ctx, cancel := app.StoreContext()
			defer cancel()

			shift, err := services.StartShift(ctx, app.Database, app.Cfg, app.Logger, services.StartShiftRequest{
				Date:      date,
				User:      identity.User,
				Site:      args[0],
				StartTime: clock,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Shift started\n\n")
			fmt.Fprintf(out, "Site:          %s\n", shift.Site)
			fmt.Fprintf(out, "Date:          %s\n", shift.Date)
			fmt.Fprintf(out, "Start:         %s\n", shift.StartTime)
			fmt.Fprintf(out, "Rounded start: %s\n\n", shift.RoundedStart)
			return nil
		},
	}
}

// CloseShiftCmd creates the closeShift command
func CloseShiftCmd(app *AppContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "closeShift <site>",
		Short: "Close the logged-in user's open shift at a site",
		Long: `Close the logged-in user's open shift at a site.

The shift is looked up by today's date. Use --date to close an overnight
shift that was started the previous day.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := app.Identity()
			if err != nil {
				return err
			}

			today, clock := services.Now(app.now(), app.Cfg.Location())
			shiftDate := date
			if shiftDate == "" {
				shiftDate = today
			}

			ctx, cancel := app.StoreContext()
			defer cancel()

			shift, err := services.CloseShift(ctx, app.Database, app.Cfg, app.Logger, services.CloseShiftRequest{
				Date:      shiftDate,
				User:      identity.User,
				Site:      args[0],
				CloseDate: today,
				EndTime:   clock,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Shift closed\n\n")
			fmt.Fprintf(out, "Site:          %s\n", shift.Site)
			fmt.Fprintf(out, "Started:       %s %s (rounded %s)\n", shift.Date, shift.StartTime, shift.RoundedStart)
			fmt.Fprintf(out, "Closed:        %s %s (rounded %s)\n", shift.CloseDate, shift.CloseTime, shift.RoundedEnd)

			start, errStart := model.ParseClock(shift.RoundedStart)
			end, errEnd := model.ParseClock(shift.RoundedEnd)
			if errStart == nil && errEnd == nil {
				fmt.Fprintf(out, "Worked:        %s\n", model.FormatMinutes(model.ElapsedMinutes(start, end)))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date the shift was started (YYYY-MM-DD, default today)")
	return cmd
}

// ListSitesCmd creates the listSites command
func ListSitesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listSites",
		Short: "List the sites shifts can be recorded at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d sites:\n\n", len(app.Cfg.Sites))
			for _, site := range app.Cfg.Sites {
				fmt.Fprintf(out, "- %s\n", site)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
