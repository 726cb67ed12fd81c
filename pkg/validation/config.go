// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"time"

	"github.com/iwvelando/sales-forecast/pkg/constants"
)

// maxReasonableHorizon is the longest horizon accepted without a warning.
const maxReasonableHorizon = 36

// ValidateHorizons checks that every horizon is a month count between 1 and
// constants.MaxHorizonMonths and warns about duplicates and very long horizons.
func ValidateHorizons(horizons []int) ([]string, error) {
	if len(horizons) == 0 {
		return nil, fmt.Errorf("at least one forecast horizon is required")
	}
	var warnings []string
	seen := make(map[int]bool, len(horizons))
	for _, h := range horizons {
		if h < 1 {
			return nil, fmt.Errorf("forecast horizon must be at least 1 month, got %d", h)
		}
		if h > constants.MaxHorizonMonths {
			return nil, fmt.Errorf("forecast horizon cannot exceed %d months, got %d", constants.MaxHorizonMonths, h)
		}
		if seen[h] {
			warnings = append(warnings, fmt.Sprintf("forecast horizon %d is listed more than once", h))
		}
		seen[h] = true
		if h > maxReasonableHorizon {
			warnings = append(warnings, fmt.Sprintf("forecast horizon %d months extrapolates far beyond a short history", h))
		}
	}
	return warnings, nil
}

// ValidateFactor checks that a multiplicative factor is positive.
func ValidateFactor(name string, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, factor)
	}
	return nil
}

// ValidateMonth checks that month is a calendar month number.
func ValidateMonth(name string, month int) error {
	if month < 1 || month > constants.MonthsPerYear {
		return fmt.Errorf("%s must be between 1 and 12, got %d", name, month)
	}
	return nil
}

// ValidateWindow parses the window bounds and checks their order.
func ValidateWindow(start, end string) (time.Time, time.Time, error) {
	startT, err := time.Parse(constants.DayLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window start %q: %w", start, err)
	}
	endT, err := time.Parse(constants.DayLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window end %q: %w", end, err)
	}
	if endT.Before(startT) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s is before start %s", end, start)
	}
	return startT, endT, nil
}

// ValidateStartDate checks a forecast start date in day layout.
func ValidateStartDate(date string) error {
	if _, err := time.Parse(constants.DayLayout, date); err != nil {
		return fmt.Errorf("invalid forecast start date %q: %w", date, err)
	}
	return nil
}
