package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/core/services"
)

// filterFlags are the shift filters shared by the review commands
type filterFlags struct {
	from   string
	to     string
	user   string
	site   string
	state  string
	period string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.user, "for", "", "Only shifts of this user (admins only)")
	cmd.Flags().StringVar(&f.site, "site", "", "Only shifts at this site")
	cmd.Flags().StringVar(&f.state, "state", string(model.ShiftStateAll), "open, closed or all")
	cmd.Flags().StringVar(&f.period, "period", "", "Pay period containing this date (YYYY-MM-DD, or 'current'); --from and --to narrow it")
}

// build resolves the flags into a filter for identity. Workers are limited
// to their own shifts.
func (f *filterFlags) build(app *AppContext, identity model.Identity) (services.ShiftFilter, error) {
	filter := services.ShiftFilter{
		From:  f.from,
		To:    f.to,
		User:  f.user,
		Site:  f.site,
		State: model.ShiftState(f.state),
	}

	if !identity.IsAdmin() {
		if filter.User != "" && filter.User != identity.User {
			return filter, fmt.Errorf("%w: workers can only review their own shifts", model.ErrForbidden)
		}
		filter.User = identity.User
	}

	if f.period != "" {
		if app.Cfg.PayPeriod == "" {
			return filter, fmt.Errorf("--period needs payPeriod in the config file")
		}
		day := app.now()
		if f.period != "current" {
			var err error
			day, err = time.ParseInLocation(model.DateLayout, f.period, app.Cfg.Location())
			if err != nil {
				return filter, fmt.Errorf("invalid --period date %q", f.period)
			}
		}
		var err error
		filter, err = services.PayPeriodFilter(filter, app.Cfg.PayPeriod, day)
		if err != nil {
			return filter, err
		}
	}

	return filter, filter.Validate()
}
