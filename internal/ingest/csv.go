// Package ingest reads sales transactions from tabular input and applies the
// configured date window.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Column names expected in the input header.
const (
	ColumnSignupDate      = "signup_date"
	ColumnAmountPaid      = "amount_paid"
	ColumnSalesAgent      = "sales_agent"
	ColumnClosingAgent    = "closing_agent"
	ColumnCountry         = "country"
	ColumnProductType     = "product_type"
	ColumnCustomerAgeDays = "customer_age_days"
	ColumnPaidPerDay      = "paid_per_day"
)

var requiredColumns = []string{
	ColumnSignupDate,
	ColumnAmountPaid,
	ColumnSalesAgent,
	ColumnClosingAgent,
	ColumnCountry,
	ColumnProductType,
	ColumnCustomerAgeDays,
	ColumnPaidPerDay,
}

// Result holds the parsed records along with anything worth telling the
// operator about how they were obtained.
type Result struct {
	Records  []sales.Transaction
	Dropped  int
	Warnings []string
}

// Source provides transactions from a location such as a file path.
type Source interface {
	Load(path string) (Result, error)
}

// CSVSource reads transactions from CSV files with a header row.
type CSVSource struct {
	Logger *zap.Logger
}

// NewCSVSource returns a CSVSource that logs to logger.
func NewCSVSource(logger *zap.Logger) *CSVSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSource{Logger: logger}
}

// Load reads and parses the CSV file at path.
func (s *CSVSource) Load(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &sales.IngestionError{Source: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()
	return s.Parse(path, f)
}

// Parse reads CSV data from r. name identifies the input in errors and logs.
func (s *CSVSource) Parse(name string, r io.Reader) (Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("input is empty")
		}
		return Result{}, &sales.IngestionError{Source: name, Err: err}
	}

	columns, err := indexColumns(header)
	if err != nil {
		return Result{}, &sales.IngestionError{Source: name, Err: err}
	}

	var result Result
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// Malformed quoting spoils one row, not the file.
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return Result{}, &sales.IngestionError{Source: name, Err: fmt.Errorf("line %d: %w", line, err)}
			}
			result.Dropped++
			logger.Debug("dropping malformed row",
				zap.String("op", "ingest.Parse"),
				zap.String("source", name),
				zap.Int("line", parseErr.StartLine),
				zap.Error(err),
			)
			line = parseErr.Line
			continue
		}

		tx, err := parseRow(row, columns)
		if err != nil {
			result.Dropped++
			logger.Debug("dropping row",
				zap.String("op", "ingest.Parse"),
				zap.String("source", name),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		result.Records = append(result.Records, tx)
	}

	if result.Dropped > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("dropped %d malformed rows or rows with unparseable dates or amounts", result.Dropped))
	}
	if len(result.Records) == 0 {
		return result, &sales.IngestionError{Source: name, Err: errors.New("no parseable rows")}
	}

	logger.Info("loaded transactions",
		zap.String("op", "ingest.Parse"),
		zap.String("source", name),
		zap.Int("records", len(result.Records)),
		zap.Int("dropped", result.Dropped),
	)
	return result, nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) (sales.Transaction, error) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	signup, err := datetime.ParseSignupDate(field(ColumnSignupDate))
	if err != nil {
		return sales.Transaction{}, fmt.Errorf("signup date: %w", err)
	}

	amount, err := ParseAmount(field(ColumnAmountPaid))
	if err != nil {
		return sales.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	return sales.Transaction{
		SignupDate:      signup,
		AmountPaid:      amount,
		SalesAgent:      field(ColumnSalesAgent),
		ClosingAgent:    field(ColumnClosingAgent),
		Country:         field(ColumnCountry),
		ProductType:     field(ColumnProductType),
		CustomerAgeDays: parseOptional(field(ColumnCustomerAgeDays)),
		PaidPerDay:      parseOptional(field(ColumnPaidPerDay)),
	}, nil
}

// ParseAmount parses a monetary value, tolerating a leading currency symbol
// and thousands separators. Values beyond constants.MaxAbsAmount in magnitude
// are rejected.
func ParseAmount(value string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	if d.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("value %s out of range", value)
	}
	return d.InexactFloat64(), nil
}

var maxAmount = decimal.NewFromFloat(constants.MaxAbsAmount)

func parseOptional(value string) float64 {
	v, err := ParseAmount(value)
	if err != nil {
		return sales.Missing()
	}
	return v
}
