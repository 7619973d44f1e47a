package dataset

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/models"
)

// Validator validates customer records before ingest
type Validator struct {
	logger *logrus.Logger
}

// NewValidator creates a new customer validator
func NewValidator(logger *logrus.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateCustomer validates a customer record for required fields and constraints
func (v *Validator) ValidateCustomer(customer *models.Customer) []string {
	var errors []string

	if customer.Age < 18 || customer.Age > 120 {
		errors = append(errors, fmt.Sprintf("age out of range (18-120), got %d", customer.Age))
	}

	if customer.Gender != "M" && customer.Gender != "F" {
		errors = append(errors, fmt.Sprintf("gender must be M or F, got %q", customer.Gender))
	}

	if customer.DependentCount < 0 {
		errors = append(errors, "dependent_count cannot be negative")
	}

	if customer.MonthsOnBook < 0 {
		errors = append(errors, "months_on_book cannot be negative")
	}

	if customer.MonthsInactive12Mon < 0 || customer.MonthsInactive12Mon > 12 {
		errors = append(errors, fmt.Sprintf("months_inactive_12_mon out of range (0-12), got %d", customer.MonthsInactive12Mon))
	}

	if customer.CreditLimit.IsNegative() {
		errors = append(errors, "credit_limit cannot be negative")
	}

	if customer.TotalRevolvingBal.IsNegative() {
		errors = append(errors, "total_revolving_bal cannot be negative")
	}

	if customer.TotalTransAmt.IsNegative() {
		errors = append(errors, "total_trans_amt cannot be negative")
	}

	if customer.TotalTransCt < 0 {
		errors = append(errors, "total_trans_ct cannot be negative")
	}

	if customer.AvgUtilizationRatio < 0 || customer.AvgUtilizationRatio > 1 {
		errors = append(errors, fmt.Sprintf("avg_utilization_ratio out of range (0-1), got %f", customer.AvgUtilizationRatio))
	}

	return errors
}

// IsKnownEducationLevel checks if the education level is one the scorer was trained on.
// "Unknown" appears in raw exports and is accepted, the scorer treats it as missing.
func (v *Validator) IsKnownEducationLevel(level string) bool {
	if level == "Unknown" {
		return true
	}
	_, ok := educationLevelSet[level]
	return ok
}

// IsKnownIncomeCategory checks if the income category is valid
func (v *Validator) IsKnownIncomeCategory(category string) bool {
	if category == "Unknown" {
		return true
	}
	_, ok := incomeCategorySet[category]
	return ok
}

var educationLevelSet = map[string]bool{
	"Uneducated":    true,
	"High School":   true,
	"College":       true,
	"Graduate":      true,
	"Post-Graduate": true,
	"Doctorate":     true,
}

var incomeCategorySet = map[string]bool{
	"Less than $40K": true,
	"$40K - $60K":    true,
	"$60K - $80K":    true,
	"$80K - $120K":   true,
	"$120K +":        true,
}
