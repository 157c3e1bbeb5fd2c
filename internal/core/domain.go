package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryOthers        Category = "Others"
)

const (
	PaymentCash       PaymentMethod = "Cash"
	PaymentCard       PaymentMethod = "Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "Net Banking"
	PaymentOthers     PaymentMethod = "Others"
)

type (
	Category      string
	PaymentMethod string

	// Expense is a single spending record owned by exactly one user.
	Expense struct {
		ID            string        `json:"id"`
		UserID        string        `json:"userId"`
		Title         string        `json:"title"`
		Amount        Money         `json:"amount"`
		Category      Category      `json:"category"`
		Date          Date          `json:"date"`
		Description   string        `json:"description"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		CreatedAt     time.Time     `json:"createdAt"`
		UpdatedAt     time.Time     `json:"updatedAt"`
	}

	// User mirrors the identity provider's subject plus app-specific fields.
	User struct {
		ID            string    `json:"id"`
		Email         string    `json:"email"`
		FirstName     string    `json:"firstName"`
		LastName      string    `json:"lastName"`
		MonthlyBudget Money     `json:"monthlyBudget"`
		Categories    []string  `json:"categories"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidTitle         = errors.New("title must be between 3 and 100 characters")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDate          = errors.New("invalid date")
	ErrDescriptionTooLong   = errors.New("description too long (max 500 characters)")
)

// Categories lists the fixed category set, in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryTransport, CategoryShopping, CategoryBills,
		CategoryEntertainment, CategoryHealth, CategoryOthers,
	}
}

// DefaultCategories returns the category labels assigned to new users.
func DefaultCategories() []string {
	cats := Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// PaymentMethods lists the fixed payment method set.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentCash, PaymentCard, PaymentUPI, PaymentNetBanking, PaymentOthers,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryBills,
		CategoryEntertainment, CategoryHealth, CategoryOthers:
		return true
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentNetBanking, PaymentOthers:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	title := strings.TrimSpace(e.Title)
	if len(title) < 3 || len(title) > 100 {
		return ErrInvalidTitle
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 500 {
		return ErrDescriptionTooLong
	}
	if e.PaymentMethod != "" && !e.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// Normalize trims free-text fields and fills defaulted ones.
// Called before Validate on the create path.
func (e *Expense) Normalize(now time.Time) {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	if e.PaymentMethod == "" {
		e.PaymentMethod = PaymentCash
	}
	if e.Date.IsZero() {
		e.Date = NewDate(now.UTC().Year(), int(now.UTC().Month()), now.UTC().Day())
	}
}
