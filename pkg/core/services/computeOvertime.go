package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

var (
	// ErrShiftIncomplete marks a shift missing its rounded start or end
	ErrShiftIncomplete = errors.New("shift has no rounded start or end")
	// ErrNoRule marks a shift whose rounded start has no overtime rule
	ErrNoRule = errors.New("no overtime rule for rounded start")
)

var minutesPerHour = decimal.NewFromInt(60)

// RuleTable maps a rounded start time to the expected shift length in minutes
type RuleTable map[model.Clock]int

// BuildRuleTable normalizes overtime rules into a lookup table.
// Keys are parsed so "7:00", "07:00" and "07:00:00" collide; a duplicate key,
// an unparsable row or negative hours is a model.ErrRuleLookup.
func BuildRuleTable(rules []db.OvertimeRule) (RuleTable, error) {
	table := make(RuleTable, len(rules))
	for i, rule := range rules {
		start, err := model.ParseClock(rule.RoundedStart)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", model.ErrRuleLookup, i+1, err)
		}
		hours, err := decimal.NewFromString(rule.Hours)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: invalid hours %q", model.ErrRuleLookup, i+1, rule.Hours)
		}
		if hours.IsNegative() {
			return nil, fmt.Errorf("%w: rule %d: negative hours %s", model.ErrRuleLookup, i+1, hours)
		}
		if _, dup := table[start]; dup {
			return nil, fmt.Errorf("%w: duplicate rule for %s", model.ErrRuleLookup, start)
		}
		table[start] = int(hours.Mul(minutesPerHour).Round(0).IntPart())
	}
	return table, nil
}

// OvertimeCalculation is the arithmetic outcome for one closed shift
type OvertimeCalculation struct {
	ElapsedMinutes  int
	ExpectedMinutes int
	OvertimeMinutes int
}

// Expected formats the expected duration as HH:MM
func (c OvertimeCalculation) Expected() string { return model.FormatMinutes(c.ExpectedMinutes) }

// Overtime formats the overtime as HH:MM
func (c OvertimeCalculation) Overtime() string { return model.FormatMinutes(c.OvertimeMinutes) }

// CalculateOvertime computes elapsed, expected and overtime minutes for a shift.
// Elapsed time uses the rounded times and wraps past midnight once, so a shift
// is assumed to last under 24 hours.
func CalculateOvertime(shift db.Shift, rules RuleTable) (OvertimeCalculation, error) {
	if shift.RoundedStart == "" || shift.RoundedEnd == "" {
		return OvertimeCalculation{}, ErrShiftIncomplete
	}
	start, err := model.ParseClock(shift.RoundedStart)
	if err != nil {
		return OvertimeCalculation{}, fmt.Errorf("rounded start: %w", err)
	}
	end, err := model.ParseClock(shift.RoundedEnd)
	if err != nil {
		return OvertimeCalculation{}, fmt.Errorf("rounded end: %w", err)
	}

	expected, ok := rules[start]
	if !ok {
		return OvertimeCalculation{}, fmt.Errorf("%w %s", ErrNoRule, start)
	}

	elapsed := model.ElapsedMinutes(start, end)
	return OvertimeCalculation{
		ElapsedMinutes:  elapsed,
		ExpectedMinutes: expected,
		OvertimeMinutes: max(elapsed-expected, 0),
	}, nil
}

// OvertimeResult counts what a batch run did with each shift
type OvertimeResult struct {
	Updated    int
	Unchanged  int
	NoRule     int
	Incomplete int
	Invalid    int
}

// ComputeOvertime fills in the expected and overtime columns of every closed shift.
// Rows are written one at a time; when a write fails the batch stops and the
// result still reports how many rows were already updated.
func ComputeOvertime(ctx context.Context, store db.OvertimeStore, logger *zap.Logger) (*OvertimeResult, error) {
	logger.Debug("Fetching overtime rules")
	rules, err := store.GetOvertimeRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overtime rules: %w", err)
	}
	table, err := BuildRuleTable(rules)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded overtime rules", zap.Int("count", len(table)))

	shifts, err := store.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	result := &OvertimeResult{}
	for _, shift := range shifts {
		calc, err := CalculateOvertime(shift, table)
		switch {
		case errors.Is(err, ErrShiftIncomplete):
			result.Incomplete++
			continue
		case errors.Is(err, ErrNoRule):
			logger.Debug("Skipping shift without rule",
				zap.Int("row", shift.Row),
				zap.String("rounded_start", shift.RoundedStart))
			result.NoRule++
			continue
		case err != nil:
			logger.Warn("Skipping shift with unreadable times",
				zap.Int("row", shift.Row),
				zap.Error(err))
			result.Invalid++
			continue
		}

		expected, overtime := calc.Expected(), calc.Overtime()
		if shift.Expected == expected && shift.Overtime == overtime {
			result.Unchanged++
			continue
		}

		if err := store.SetOvertime(ctx, shift.Row, expected, overtime); err != nil {
			logger.Error("Overtime batch stopped",
				zap.Int("row", shift.Row),
				zap.Int("updated", result.Updated),
				zap.Error(err))
			return result, fmt.Errorf("failed to update row %d after %d updates: %w", shift.Row, result.Updated, err)
		}
		result.Updated++
	}

	logger.Info("Overtime computed",
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("no_rule", result.NoRule),
		zap.Int("incomplete", result.Incomplete),
		zap.Int("invalid", result.Invalid))

	return result, nil
}
