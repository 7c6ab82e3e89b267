package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/core/services"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// ListShiftsCmd creates the listShifts command
func ListShiftsCmd(app *AppContext) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "listShifts",
		Short: "List recorded shifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shifts, err := fetchShifts(app, &flags)
			if err != nil {
				return err
			}
			printShifts(cmd.OutOrStdout(), shifts)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// ExportShiftsCmd creates the exportShifts command
func ExportShiftsCmd(app *AppContext) *cobra.Command {
	var (
		flags  filterFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "exportShifts",
		Short: "Export shifts as CSV (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.AdminIdentity(); err != nil {
				return err
			}
			shifts, err := fetchShifts(app, &flags)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return services.ExportShifts(cmd.OutOrStdout(), shifts)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := services.ExportShifts(f, shifts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			app.Logger.Info("Shifts exported", zap.String("file", output), zap.Int("count", len(shifts)))
			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Exported %d shifts to %s\n\n", len(shifts), output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write (default stdout)")
	return cmd
}

// OvertimeSummaryCmd creates the overtimeSummary command
func OvertimeSummaryCmd(app *AppContext) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "overtimeSummary",
		Short: "Total worked and overtime hours per user (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.AdminIdentity(); err != nil {
				return err
			}
			shifts, err := fetchShifts(app, &flags)
			if err != nil {
				return err
			}

			totals := services.SummarizeOvertime(shifts)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%-20s %8s %10s %10s\n", "User", "Shifts", "Worked", "Overtime")
			fmt.Fprintln(out, strings.Repeat("-", 51))
			for _, t := range totals {
				fmt.Fprintf(out, "%-20s %8d %10s %10s\n",
					t.User, t.Shifts, model.FormatMinutes(t.WorkedMinutes), model.FormatMinutes(t.OvertimeMinutes))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// ComputeOvertimeCmd creates the computeOvertime command
func ComputeOvertimeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "computeOvertime",
		Short: "Fill in expected hours and overtime for every closed shift (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.AdminIdentity(); err != nil {
				return err
			}

			ctx, cancel := app.StoreContext()
			defer cancel()

			result, err := services.ComputeOvertime(ctx, app.Database, app.Logger)
			out := cmd.OutOrStdout()
			if result != nil {
				fmt.Fprintf(out, "\nUpdated:    %d\n", result.Updated)
				fmt.Fprintf(out, "Unchanged:  %d\n", result.Unchanged)
				fmt.Fprintf(out, "No rule:    %d\n", result.NoRule)
				fmt.Fprintf(out, "Still open: %d\n", result.Incomplete)
				if result.Invalid > 0 {
					fmt.Fprintf(out, "Unreadable: %d\n", result.Invalid)
				}
				fmt.Fprintln(out)
			}
			return err
		},
	}
}

func fetchShifts(app *AppContext, flags *filterFlags) ([]db.Shift, error) {
	identity, err := app.Identity()
	if err != nil {
		return nil, err
	}
	filter, err := flags.build(app, identity)
	if err != nil {
		return nil, err
	}

	ctx, cancel := app.StoreContext()
	defer cancel()
	return services.ListShifts(ctx, app.Database, app.Logger, filter)
}

func printShifts(out io.Writer, shifts []db.Shift) {
	fmt.Fprintf(out, "\nFound %d shifts:\n\n", len(shifts))
	if len(shifts) == 0 {
		return
	}

	fmt.Fprintf(out, "%-10s  %-14s  %-16s  %-8s  %-8s  %-5s  %-8s\n",
		"Date", "User", "Site", "Start", "End", "Hours", "Overtime")
	fmt.Fprintln(out, strings.Repeat("-", 81))
	for _, s := range shifts {
		end := s.RoundedEnd
		if s.IsOpen() {
			end = "open"
		}
		fmt.Fprintf(out, "%-10s  %-14s  %-16s  %-8s  %-8s  %-5s  %-8s\n",
			s.Date, s.User, s.Site, s.RoundedStart, end, s.Expected, s.Overtime)
	}
	fmt.Fprintln(out)
}
