package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		Title:         "Groceries",
		Amount:        Money{Cents: 4250},
		Category:      CategoryFood,
		Date:          NewDate(2025, 6, 15),
		PaymentMethod: PaymentCard,
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{
			name:   "valid expense",
			mutate: func(e *Expense) {},
		},
		{
			name:    "title too short",
			mutate:  func(e *Expense) { e.Title = "ab" },
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "title only whitespace",
			mutate:  func(e *Expense) { e.Title = "   a   " },
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "title too long",
			mutate:  func(e *Expense) { e.Title = strings.Repeat("x", 101) },
			wantErr: ErrInvalidTitle,
		},
		{
			name:   "title exactly 3 chars",
			mutate: func(e *Expense) { e.Title = "abc" },
		},
		{
			name:   "title exactly 100 chars",
			mutate: func(e *Expense) { e.Title = strings.Repeat("x", 100) },
		},
		{
			name:    "zero amount",
			mutate:  func(e *Expense) { e.Amount = Money{} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(e *Expense) { e.Amount = Money{Cents: -100} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:   "one cent is valid",
			mutate: func(e *Expense) { e.Amount = Money{Cents: 1} },
		},
		{
			name:    "unknown category",
			mutate:  func(e *Expense) { e.Category = "Groceries" },
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "empty category",
			mutate:  func(e *Expense) { e.Category = "" },
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "zero date",
			mutate:  func(e *Expense) { e.Date = Date{} },
			wantErr: ErrInvalidDate,
		},
		{
			name:    "description too long",
			mutate:  func(e *Expense) { e.Description = strings.Repeat("x", 501) },
			wantErr: ErrDescriptionTooLong,
		},
		{
			name:   "description exactly 500 chars",
			mutate: func(e *Expense) { e.Description = strings.Repeat("x", 500) },
		},
		{
			name:    "unknown payment method",
			mutate:  func(e *Expense) { e.PaymentMethod = "Cheque" },
			wantErr: ErrInvalidPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseNormalize(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	e := Expense{
		Title:       "  Coffee  ",
		Description: "  morning espresso  ",
	}
	e.Normalize(now)

	if e.Title != "Coffee" {
		t.Errorf("title not trimmed: %q", e.Title)
	}
	if e.Description != "morning espresso" {
		t.Errorf("description not trimmed: %q", e.Description)
	}
	if e.PaymentMethod != PaymentCash {
		t.Errorf("payment method not defaulted: %q", e.PaymentMethod)
	}
	if e.Date.String() != "2025-06-15" {
		t.Errorf("date not defaulted to today: %s", e.Date)
	}
}

func TestExpenseNormalizeKeepsExplicitValues(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	e := Expense{
		Title:         "Train ticket",
		Date:          NewDate(2025, 6, 1),
		PaymentMethod: PaymentUPI,
	}
	e.Normalize(now)

	if e.Date.String() != "2025-06-01" {
		t.Errorf("explicit date was overwritten: %s", e.Date)
	}
	if e.PaymentMethod != PaymentUPI {
		t.Errorf("explicit payment method was overwritten: %q", e.PaymentMethod)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	for _, c := range []Category{"", "food", "Groceries"} {
		if c.Valid() {
			t.Errorf("%q should be invalid", c)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, p := range PaymentMethods() {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	for _, p := range []PaymentMethod{"", "cash", "Cheque"} {
		if p.Valid() {
			t.Errorf("%q should be invalid", p)
		}
	}
}
