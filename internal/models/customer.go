package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer represents a credit card customer in the portfolio
type Customer struct {
	ID                    uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Age                   int             `db:"age" json:"age" validate:"gte=18,lte=120"`
	Gender                string          `db:"gender" json:"gender" validate:"oneof=M F"`
	DependentCount        int             `db:"dependent_count" json:"dependent_count" validate:"gte=0"`
	EducationLevel        string          `db:"education_level" json:"education_level"`
	MaritalStatus         string          `db:"marital_status" json:"marital_status"`
	IncomeCategory        string          `db:"income_category" json:"income_category"`
	CardCategory          string          `db:"card_category" json:"card_category"`
	MonthsOnBook          int             `db:"months_on_book" json:"months_on_book" validate:"gte=0"`
	RelationshipCount     int             `db:"relationship_count" json:"relationship_count" validate:"gte=0"`
	MonthsInactive12Mon   int             `db:"months_inactive_12_mon" json:"months_inactive_12_mon" validate:"gte=0,lte=12"`
	ContactsCount12Mon    int             `db:"contacts_count_12_mon" json:"contacts_count_12_mon" validate:"gte=0"`
	CreditLimit           decimal.Decimal `db:"credit_limit" json:"credit_limit"`
	TotalRevolvingBal     decimal.Decimal `db:"total_revolving_bal" json:"total_revolving_bal"`
	AvgOpenToBuy          decimal.Decimal `db:"avg_open_to_buy" json:"avg_open_to_buy"`
	TotalAmtChngQ4Q1      float64         `db:"total_amt_chng_q4_q1" json:"total_amt_chng_q4_q1"`
	TotalTransAmt         decimal.Decimal `db:"total_trans_amt" json:"total_trans_amt"`
	TotalTransCt          int             `db:"total_trans_ct" json:"total_trans_ct" validate:"gte=0"`
	TotalCtChngQ4Q1       float64         `db:"total_ct_chng_q4_q1" json:"total_ct_chng_q4_q1"`
	AvgUtilizationRatio   float64         `db:"avg_utilization_ratio" json:"avg_utilization_ratio" validate:"gte=0,lte=1"`
	Churned               bool            `db:"churned" json:"churned"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// FeatureNames lists the feature columns in the order the scorer expects them.
var FeatureNames = []string{
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

var educationLevels = map[string]int{
	"Uneducated":    0,
	"High School":   1,
	"College":       2,
	"Graduate":      3,
	"Post-Graduate": 4,
	"Doctorate":     5,
}

var incomeCategories = map[string]int{
	"Less than $40K": 0,
	"$40K - $60K":    1,
	"$60K - $80K":    2,
	"$80K - $120K":   3,
	"$120K +":        4,
}

var maritalStatuses = map[string]int{
	"Single":   0,
	"Married":  1,
	"Divorced": 2,
}

var cardCategories = map[string]int{
	"Blue":     0,
	"Silver":   1,
	"Gold":     2,
	"Platinum": 3,
}

func encodeCategory(levels map[string]int, value string) float64 {
	if code, ok := levels[value]; ok {
		return float64(code)
	}
	// Unknown category, scorer treats negative codes as missing
	return -1
}

// FeatureVector encodes the customer into the numeric vector the scorer
// expects, in FeatureNames order.
func (c *Customer) FeatureVector() []float64 {
	gender := 0.0
	if c.Gender == "M" {
		gender = 1.0
	}

	creditLimit, _ := c.CreditLimit.Float64()
	revolvingBal, _ := c.TotalRevolvingBal.Float64()
	openToBuy, _ := c.AvgOpenToBuy.Float64()
	transAmt, _ := c.TotalTransAmt.Float64()

	return []float64{
		float64(c.Age),
		gender,
		float64(c.DependentCount),
		encodeCategory(educationLevels, c.EducationLevel),
		encodeCategory(maritalStatuses, c.MaritalStatus),
		encodeCategory(incomeCategories, c.IncomeCategory),
		encodeCategory(cardCategories, c.CardCategory),
		float64(c.MonthsOnBook),
		float64(c.RelationshipCount),
		float64(c.MonthsInactive12Mon),
		float64(c.ContactsCount12Mon),
		creditLimit,
		revolvingBal,
		openToBuy,
		c.TotalAmtChngQ4Q1,
		transAmt,
		float64(c.TotalTransCt),
		c.TotalCtChngQ4Q1,
		c.AvgUtilizationRatio,
	}
}

// Utilization recomputes the utilization ratio from balance and limit.
func (c *Customer) Utilization() float64 {
	if c.CreditLimit.IsZero() {
		return 0
	}
	ratio := c.TotalRevolvingBal.Div(c.CreditLimit)
	f, _ := ratio.Float64()
	return f
}
