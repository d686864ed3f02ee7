package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "local.db"), nil)
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestKV(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "group_details_g1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "group_details_g1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "groupXdetails", []byte(`x`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "group_details_g1")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("expected overwritten value, got %s", got)
	}

	keys, err := store.Keys(ctx, "group_details_")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "group_details_g1" {
		t.Errorf("expected only group_details_g1, got %v", keys)
	}

	if err := store.Delete(ctx, "group_details_g1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "group_details_g1"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestReminders(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	changes := 0
	unsubscribe := store.Bus().Subscribe(events.Reminders, func() { changes++ })
	defer unsubscribe()

	due := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rent := &models.Reminder{Title: "Rent", Due: due, IsRecurring: true, RepeatInterval: 30}
	phone := &models.Reminder{Title: "Phone bill", Due: due.AddDate(0, 0, -2)}
	for _, r := range []*models.Reminder{rent, phone} {
		if err := store.AddReminder(ctx, r); err != nil {
			t.Fatalf("AddReminder failed: %v", err)
		}
	}
	if rent.ID == 0 || phone.ID == 0 {
		t.Fatal("expected IDs to be assigned")
	}

	list, err := store.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Phone bill" {
		t.Fatalf("expected reminders ordered by due date, got %+v", list)
	}
	if !list[1].Due.Equal(due) || !list[1].IsRecurring || list[1].RepeatInterval != 30 {
		t.Errorf("unexpected round trip: %+v", list[1])
	}

	rent.LastTriggered = due
	rent.Due = due.AddDate(0, 0, 30)
	if err := store.UpdateReminder(ctx, rent); err != nil {
		t.Fatalf("UpdateReminder failed: %v", err)
	}
	if err := store.DeleteReminders(ctx, phone.ID); err != nil {
		t.Fatalf("DeleteReminders failed: %v", err)
	}

	list, err = store.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders failed: %v", err)
	}
	if len(list) != 1 || !list[0].LastTriggered.Equal(due) {
		t.Errorf("expected updated rent reminder only, got %+v", list)
	}

	if changes != 4 {
		t.Errorf("expected 4 change notifications, got %d", changes)
	}

	missing := &models.Reminder{ID: 999, Title: "x", Due: due}
	if err := store.UpdateReminder(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	changes := 0
	store.Bus().Subscribe(events.Transactions, func() { changes++ })

	older := &models.Transaction{
		Title:  "Salary",
		Amount: decimal.RequireFromString("85000.00"),
		Date:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:   models.EntryIncome,
	}
	newer := &models.Transaction{
		Title:    "Groceries",
		Amount:   decimal.RequireFromString("1249.99"),
		Date:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Category: "Food",
	}
	for _, tx := range []*models.Transaction{older, newer} {
		if err := store.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
	}

	list, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Groceries" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if !list[0].Amount.Equal(decimal.RequireFromString("1249.99")) {
		t.Errorf("expected exact amount, got %s", list[0].Amount)
	}
	if list[0].Type != models.EntryExpense || list[0].PaymentMode != models.PaymentCash {
		t.Errorf("expected expense/Cash defaults, got %s/%s", list[0].Type, list[0].PaymentMode)
	}

	if err := store.DeleteTransaction(ctx, older.ID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	if err := store.DeleteTransaction(ctx, older.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if changes != 3 {
		t.Errorf("expected 3 change notifications, got %d", changes)
	}
}
