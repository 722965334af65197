package model

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestValidateTotal(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		items   []LogItem
		wantErr bool
	}{
		{
			name:  "matching items",
			total: 50000,
			items: []LogItem{
				{SubTotal: 30000},
				{SubTotal: 20000},
			},
		},
		{
			name:  "within rounding tolerance",
			total: 10.00,
			items: []LogItem{
				{SubTotal: 3.333},
				{SubTotal: 3.333},
				{SubTotal: 3.334},
			},
		},
		{
			name:  "mismatch",
			total: 50000,
			items: []LogItem{
				{SubTotal: 30000},
				{SubTotal: 25000},
			},
			wantErr: true,
		},
		{
			name:    "off by more than half a cent",
			total:   100,
			items:   []LogItem{{SubTotal: 100.01}},
			wantErr: true,
		},
		{
			name:  "no items, any total",
			total: 123456.78,
			items: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := FinancialLog{TotalAmount: tt.total}
			err := l.ValidateTotal(tt.items)
			if tt.wantErr {
				if !errors.Is(err, ErrTotalMismatch) {
					t.Errorf("want ErrTotalMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEffectiveDate(t *testing.T) {
	created := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	transacted := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	l := FinancialLog{CreatedAt: created}
	if !l.EffectiveDate().Equal(created) {
		t.Errorf("without transaction date: got %v, want creation time", l.EffectiveDate())
	}

	l.TransactionDate = &transacted
	if !l.EffectiveDate().Equal(transacted) {
		t.Errorf("with transaction date: got %v, want %v", l.EffectiveDate(), transacted)
	}
}

func TestArchived(t *testing.T) {
	l := FinancialLog{}
	if l.Archived() {
		t.Error("fresh log must not be archived")
	}
	l.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	if !l.Archived() {
		t.Error("soft-deleted log must report archived")
	}
}

func TestLogTypeValid(t *testing.T) {
	if !LogTypeIncome.Valid() || !LogTypeExpense.Valid() {
		t.Error("known types must be valid")
	}
	if LogType("TRANSFER").Valid() {
		t.Error("unknown type must be invalid")
	}
	if LogType("income").Valid() {
		t.Error("type comparison is case-sensitive")
	}
}
