package localstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
)

func TestCategories(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	names, err := store.CategoryNames(ctx)
	if err != nil {
		t.Fatalf("CategoryNames failed: %v", err)
	}
	if len(names) != len(models.DefaultCategories) {
		t.Fatalf("expected %d default categories, got %v", len(models.DefaultCategories), names)
	}

	changes := 0
	store.Bus().Subscribe(events.Categories, func() { changes++ })

	pets, err := store.AddCategory(ctx, "  Pets ")
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if pets.Name != "Pets" || pets.ID == 0 {
		t.Errorf("unexpected category %+v", pets)
	}
	if _, err := store.AddCategory(ctx, "pets"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate name, got %v", err)
	}
	if _, err := store.AddCategory(ctx, "   "); err == nil {
		t.Error("expected error for blank name")
	}

	list, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	var groceries int64
	for _, c := range list {
		if c.Name == "Groceries" {
			groceries = c.ID
		}
	}
	if err := store.DeleteCategory(ctx, groceries); !errors.Is(err, ErrDefaultCategory) {
		t.Errorf("expected ErrDefaultCategory, got %v", err)
	}
	if err := store.DeleteCategory(ctx, pets.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if err := store.DeleteCategory(ctx, pets.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	if changes != 2 {
		t.Errorf("expected 2 change notifications, got %d", changes)
	}
}

func TestSettingsDefaults(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	st, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if !st.EmergencyFundGoal.Equal(decimal.NewFromInt(50000)) || !st.EmergencyFundCurrent.IsZero() || !st.MonthlyBudget.IsZero() {
		t.Errorf("unexpected defaults %+v", st)
	}

	changes := 0
	store.Bus().Subscribe(events.Settings, func() { changes++ })

	st.MonthlyBudget = decimal.NewFromInt(20000)
	st.UserName = "Asha"
	if err := store.UpdateSettings(ctx, st); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	st.MonthlyBudget = decimal.NewFromInt(-1)
	if err := store.UpdateSettings(ctx, st); err == nil {
		t.Error("expected error for negative budget")
	}

	got, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if !got.MonthlyBudget.Equal(decimal.NewFromInt(20000)) || got.UserName != "Asha" {
		t.Errorf("settings not persisted: %+v", got)
	}
	if changes != 1 {
		t.Errorf("expected 1 change notification, got %d", changes)
	}
}

func TestAddSavings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	savings, settings := 0, 0
	store.Bus().Subscribe(events.Savings, func() { savings++ })
	store.Bus().Subscribe(events.Settings, func() { settings++ })

	steps := []struct {
		name        string
		tx          models.SavingsTransaction
		wantErr     error
		wantGoal    int64
		wantCurrent int64
	}{
		{"deposit", models.SavingsTransaction{Amount: decimal.NewFromInt(3000), Type: models.SavingsDeposit, Date: day}, nil, 50000, 3000},
		{"withdrawal", models.SavingsTransaction{Amount: decimal.NewFromInt(1000), Type: models.SavingsWithdrawal, Date: day.AddDate(0, 0, 1)}, nil, 50000, 2000},
		{"overdraw", models.SavingsTransaction{Amount: decimal.NewFromInt(5000), Type: models.SavingsWithdrawal, Date: day.AddDate(0, 0, 2)}, ErrInsufficientSavings, 50000, 2000},
		{"goal update", models.SavingsTransaction{Amount: decimal.NewFromInt(80000), Type: models.SavingsGoalUpdate, Date: day.AddDate(0, 0, 3)}, nil, 80000, 2000},
	}
	for _, tt := range steps {
		tx := tt.tx
		_, err := store.AddSavings(ctx, &tx)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: expected error %v, got %v", tt.name, tt.wantErr, err)
		}
		st, err := store.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings failed: %v", err)
		}
		if !st.EmergencyFundGoal.Equal(decimal.NewFromInt(tt.wantGoal)) || !st.EmergencyFundCurrent.Equal(decimal.NewFromInt(tt.wantCurrent)) {
			t.Errorf("%s: goal=%s current=%s, want %d/%d", tt.name, st.EmergencyFundGoal, st.EmergencyFundCurrent, tt.wantGoal, tt.wantCurrent)
		}
	}

	for _, bad := range []models.SavingsTransaction{
		{Amount: decimal.Zero, Type: models.SavingsDeposit},
		{Amount: decimal.NewFromInt(10), Type: "bonus"},
	} {
		if _, err := store.AddSavings(ctx, &bad); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}

	history, err := store.ListSavings(ctx)
	if err != nil {
		t.Fatalf("ListSavings failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 recorded transactions, got %d", len(history))
	}
	if history[0].Type != models.SavingsGoalUpdate || history[2].Type != models.SavingsDeposit {
		t.Errorf("expected newest first, got %v, %v, %v", history[0].Type, history[1].Type, history[2].Type)
	}
	if savings != 3 || settings != 3 {
		t.Errorf("expected 3 notifications per topic, got savings=%d settings=%d", savings, settings)
	}
}
