package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/subsplit/internal/models"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created := time.Date(2026, 10, 1, 12, 0, 0, 123456789, time.UTC)
	paidAt := created.Add(2 * time.Hour)

	t.Run("Load of empty database returns empty ledger", func(t *testing.T) {
		ledger, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(ledger.Subscriptions) != 0 {
			t.Errorf("expected no subscriptions, got %d", len(ledger.Subscriptions))
		}
	})

	t.Run("Save then Load round trips", func(t *testing.T) {
		ledger := models.NewLedger()
		ledger.Subscriptions["sub-1"] = &models.Subscription{
			Key:           "sub-1",
			Name:          "Netflix",
			GroupID:       "g1",
			TotalCost:     decimal.RequireFromString("15.99"),
			Members:       []string{"carol", "alice", "bob"},
			CostPerPerson: decimal.RequireFromString("5.33"),
			CreatedAt:     created,
			NextPayment:   created.Add(models.BillingPeriod),
		}
		ledger.Payments[models.PaymentKey("sub-1", "carol")] = &models.PaymentRecord{Paid: true, LastPayment: &paidAt}
		ledger.Payments[models.PaymentKey("sub-1", "alice")] = &models.PaymentRecord{}
		ledger.Payments[models.PaymentKey("sub-1", "bob")] = &models.PaymentRecord{}
		ledger.Groups["g1"] = json.RawMessage(`{"title":"Flat"}`)

		if err := store.Save(ctx, ledger); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		sub := loaded.Subscriptions["sub-1"]
		if sub == nil {
			t.Fatal("expected sub-1")
		}
		// Member order must survive the round trip
		want := []string{"carol", "alice", "bob"}
		if len(sub.Members) != len(want) {
			t.Fatalf("Members: got %v, want %v", sub.Members, want)
		}
		for i := range want {
			if sub.Members[i] != want[i] {
				t.Errorf("Members[%d]: got %s, want %s", i, sub.Members[i], want[i])
			}
		}
		if !sub.TotalCost.Equal(decimal.RequireFromString("15.99")) {
			t.Errorf("TotalCost: got %s", sub.TotalCost)
		}
		if !sub.CostPerPerson.Equal(decimal.RequireFromString("5.33")) {
			t.Errorf("CostPerPerson: got %s", sub.CostPerPerson)
		}
		if !sub.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt: got %v, want %v", sub.CreatedAt, created)
		}

		carol := loaded.Payments[models.PaymentKey("sub-1", "carol")]
		if carol == nil || !carol.Paid || carol.LastPayment == nil || !carol.LastPayment.Equal(paidAt) {
			t.Errorf("carol payment not restored: %+v", carol)
		}
		alice := loaded.Payments[models.PaymentKey("sub-1", "alice")]
		if alice == nil || alice.Paid || alice.LastPayment != nil {
			t.Errorf("alice payment not restored: %+v", alice)
		}
		if string(loaded.Groups["g1"]) != `{"title":"Flat"}` {
			t.Errorf("group data: got %s", loaded.Groups["g1"])
		}
	})

	t.Run("Save replaces previous contents", func(t *testing.T) {
		if err := store.Save(ctx, models.NewLedger()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded.Subscriptions) != 0 || len(loaded.Payments) != 0 || len(loaded.Groups) != 0 {
			t.Errorf("expected empty ledger after save, got %d/%d/%d",
				len(loaded.Subscriptions), len(loaded.Payments), len(loaded.Groups))
		}
	})

	t.Run("Save batches large ledgers", func(t *testing.T) {
		ledger := models.NewLedger()
		for i := 0; i < insertBatchSize*2+5; i++ {
			key := "bulk-" + strconv.Itoa(i)
			ledger.Subscriptions[key] = &models.Subscription{
				Key:           key,
				Name:          "Bulk",
				GroupID:       "g2",
				TotalCost:     decimal.NewFromInt(10),
				Members:       []string{"m"},
				CostPerPerson: decimal.NewFromInt(10),
				CreatedAt:     created,
				NextPayment:   created.Add(models.BillingPeriod),
			}
			ledger.Payments[models.PaymentKey(key, "m")] = &models.PaymentRecord{}
		}

		if err := store.Save(ctx, ledger); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded.Subscriptions) != len(ledger.Subscriptions) {
			t.Errorf("subscriptions: got %d, want %d", len(loaded.Subscriptions), len(ledger.Subscriptions))
		}
		if len(loaded.Payments) != len(ledger.Payments) {
			t.Errorf("payments: got %d, want %d", len(loaded.Payments), len(ledger.Payments))
		}
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ledger := models.NewLedger()
	now := time.Now().UTC()
	ledger.Subscriptions["k"] = &models.Subscription{
		Key: "k", Name: "Spotify", GroupID: "g", TotalCost: decimal.NewFromInt(12),
		Members: []string{"a", "b"}, CostPerPerson: decimal.NewFromInt(6),
		CreatedAt: now, NextPayment: now.Add(models.BillingPeriod),
	}
	ledger.Payments[models.PaymentKey("k", "a")] = &models.PaymentRecord{}
	ledger.Payments[models.PaymentKey("k", "b")] = &models.PaymentRecord{}
	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sub := loaded.Subscriptions["k"]; sub == nil || sub.Name != "Spotify" || len(sub.Members) != 2 {
		t.Errorf("subscription not persisted across reopen: %+v", sub)
	}
}
