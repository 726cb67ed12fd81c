package validation

import "testing"

func TestValidateHorizons(t *testing.T) {
	tests := []struct {
		name         string
		horizons     []int
		wantErr      bool
		wantWarnings int
	}{
		{"Defaults", []int{3, 6, 12}, false, 0},
		{"Empty", nil, true, 0},
		{"Zero horizon", []int{3, 0}, true, 0},
		{"Negative horizon", []int{-1}, true, 0},
		{"Duplicate", []int{3, 3}, false, 1},
		{"Very long", []int{48}, false, 1},
		{"Longest allowed", []int{120}, false, 1},
		{"Beyond limit", []int{3, 121}, true, 0},
		{"Huge", []int{2000000000}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateHorizons(tt.horizons)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ValidateHorizons(%v) expected error", tt.horizons)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateHorizons(%v) error = %v", tt.horizons, err)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("ValidateHorizons(%v) warnings = %v, expected %d", tt.horizons, warnings, tt.wantWarnings)
			}
		})
	}
}

func TestValidateFactorAndMonth(t *testing.T) {
	if err := ValidateFactor("growth", 1.1); err != nil {
		t.Errorf("ValidateFactor() unexpected error: %v", err)
	}
	if err := ValidateFactor("growth", 0); err == nil {
		t.Error("ValidateFactor(0) expected error")
	}
	if err := ValidateMonth("anchor", 12); err != nil {
		t.Errorf("ValidateMonth(12) unexpected error: %v", err)
	}
	if err := ValidateMonth("anchor", 13); err == nil {
		t.Error("ValidateMonth(13) expected error")
	}
}

func TestValidateWindow(t *testing.T) {
	start, end, err := ValidateWindow("2025-04-01", "2025-07-01")
	if err != nil {
		t.Fatalf("ValidateWindow() error = %v", err)
	}
	if !end.After(start) {
		t.Errorf("ValidateWindow() returned %v..%v", start, end)
	}

	if _, _, err := ValidateWindow("2025-07-01", "2025-04-01"); err == nil {
		t.Error("ValidateWindow() expected error for reversed bounds")
	}
	if _, _, err := ValidateWindow("April", "2025-04-01"); err == nil {
		t.Error("ValidateWindow() expected error for invalid start")
	}
	if _, _, err := ValidateWindow("2025-04-01", "July"); err == nil {
		t.Error("ValidateWindow() expected error for invalid end")
	}
}

func TestValidateStartDate(t *testing.T) {
	if err := ValidateStartDate("2025-07-01"); err != nil {
		t.Errorf("ValidateStartDate() unexpected error: %v", err)
	}
	if err := ValidateStartDate("2025-07"); err == nil {
		t.Error("ValidateStartDate() expected error for month-only date")
	}
}
