// Package dataset loads and validates the credit card customer portfolio.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/models"
)

// attritedLabel is the raw label value marking a churned customer
const attritedLabel = "Attrited Customer"

// requiredColumns are the CSV headers the loader needs. Extra columns
// (CLIENTNUM, Naive_Bayes artifacts) are ignored.
var requiredColumns = []string{
	"Attrition_Flag",
	"Customer_Age",
	"Gender",
	"Dependent_count",
	"Education_Level",
	"Marital_Status",
	"Income_Category",
	"Card_Category",
	"Months_on_book",
	"Total_Relationship_Count",
	"Months_Inactive_12_mon",
	"Contacts_Count_12_mon",
	"Credit_Limit",
	"Total_Revolving_Bal",
	"Avg_Open_To_Buy",
	"Total_Amt_Chng_Q4_Q1",
	"Total_Trans_Amt",
	"Total_Trans_Ct",
	"Total_Ct_Chng_Q4_Q1",
	"Avg_Utilization_Ratio",
}

// LoadResult holds the parsed portfolio and ingest statistics
type LoadResult struct {
	Customers   []*models.Customer
	TotalRows   int
	SkippedRows int
}

// Loader parses portfolio CSV exports into customers
type Loader struct {
	logger    *logrus.Logger
	validator *Validator
}

// NewLoader creates a new portfolio loader
func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{
		logger:    logger,
		validator: NewValidator(logger),
	}
}

// LoadFile reads and parses a portfolio CSV from disk
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return l.Load(f)
}

// Load parses a portfolio CSV from a reader. Malformed rows are skipped
// and counted rather than aborting the ingest.
func (l *Loader) Load(r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, name)
		}
	}

	result := &LoadResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		result.TotalRows++

		customer, err := parseCustomer(record, columns)
		if err != nil {
			result.SkippedRows++
			l.logger.WithFields(logrus.Fields{
				"row":   result.TotalRows,
				"error": err,
			}).Warn("Skipping malformed record")
			continue
		}

		if issues := l.validator.ValidateCustomer(customer); len(issues) > 0 {
			result.SkippedRows++
			l.logger.WithFields(logrus.Fields{
				"row":    result.TotalRows,
				"issues": issues,
			}).Warn("Skipping invalid record")
			continue
		}

		result.Customers = append(result.Customers, customer)
	}

	l.logger.WithFields(logrus.Fields{
		"total_rows": result.TotalRows,
		"loaded":     len(result.Customers),
		"skipped":    result.SkippedRows,
	}).Info("Portfolio loaded")

	return result, nil
}

func parseCustomer(record []string, columns map[string]int) (*models.Customer, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[columns[name]])
	}

	customer := &models.Customer{
		ID:             uuid.New(),
		Gender:         field("Gender"),
		EducationLevel: field("Education_Level"),
		MaritalStatus:  field("Marital_Status"),
		IncomeCategory: field("Income_Category"),
		CardCategory:   field("Card_Category"),
		Churned:        field("Attrition_Flag") == attritedLabel,
	}

	var err error
	intFields := []struct {
		column string
		dest   *int
	}{
		{"Customer_Age", &customer.Age},
		{"Dependent_count", &customer.DependentCount},
		{"Months_on_book", &customer.MonthsOnBook},
		{"Total_Relationship_Count", &customer.RelationshipCount},
		{"Months_Inactive_12_mon", &customer.MonthsInactive12Mon},
		{"Contacts_Count_12_mon", &customer.ContactsCount12Mon},
		{"Total_Trans_Ct", &customer.TotalTransCt},
	}
	for _, f := range intFields {
		if *f.dest, err = strconv.Atoi(field(f.column)); err != nil {
			return nil, fmt.Errorf("%w: %s=%q", models.ErrMalformedRecord, f.column, field(f.column))
		}
	}

	floatFields := []struct {
		column string
		dest   *float64
	}{
		{"Total_Amt_Chng_Q4_Q1", &customer.TotalAmtChngQ4Q1},
		{"Total_Ct_Chng_Q4_Q1", &customer.TotalCtChngQ4Q1},
		{"Avg_Utilization_Ratio", &customer.AvgUtilizationRatio},
	}
	for _, f := range floatFields {
		if *f.dest, err = strconv.ParseFloat(field(f.column), 64); err != nil {
			return nil, fmt.Errorf("%w: %s=%q", models.ErrMalformedRecord, f.column, field(f.column))
		}
	}

	decimalFields := []struct {
		column string
		dest   *decimal.Decimal
	}{
		{"Credit_Limit", &customer.CreditLimit},
		{"Total_Revolving_Bal", &customer.TotalRevolvingBal},
		{"Avg_Open_To_Buy", &customer.AvgOpenToBuy},
		{"Total_Trans_Amt", &customer.TotalTransAmt},
	}
	for _, f := range decimalFields {
		if *f.dest, err = decimal.NewFromString(field(f.column)); err != nil {
			return nil, fmt.Errorf("%w: %s=%q", models.ErrMalformedRecord, f.column, field(f.column))
		}
	}

	return customer, nil
}
