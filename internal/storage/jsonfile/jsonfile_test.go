package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/subsplit/internal/models"
)

func sampleLedger() *models.Ledger {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	paidAt := created.Add(time.Hour)

	ledger := models.NewLedger()
	ledger.Subscriptions["sub-1"] = &models.Subscription{
		Key:           "sub-1",
		Name:          "Netflix",
		GroupID:       "g1",
		TotalCost:     decimal.RequireFromString("15.99"),
		Members:       []string{"alice", "bob"},
		CostPerPerson: decimal.RequireFromString("8"),
		CreatedAt:     created,
		NextPayment:   created.Add(models.BillingPeriod),
	}
	ledger.Payments[models.PaymentKey("sub-1", "alice")] = &models.PaymentRecord{Paid: true, LastPayment: &paidAt}
	ledger.Payments[models.PaymentKey("sub-1", "bob")] = &models.PaymentRecord{}
	return ledger
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "subscriptions_data.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	t.Run("Load of missing file returns empty ledger", func(t *testing.T) {
		ledger, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(ledger.Subscriptions) != 0 || len(ledger.Payments) != 0 {
			t.Errorf("expected empty ledger, got %d subscriptions, %d payments",
				len(ledger.Subscriptions), len(ledger.Payments))
		}
		if ledger.Groups == nil {
			t.Error("expected groups mapping to be initialized")
		}
	})

	t.Run("Save then Load round trips", func(t *testing.T) {
		original := sampleLedger()
		if err := store.Save(ctx, original); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		sub, ok := loaded.Subscriptions["sub-1"]
		if !ok {
			t.Fatal("expected sub-1 to be loaded")
		}
		if sub.Key != "sub-1" {
			t.Errorf("Key: got %q, want sub-1", sub.Key)
		}
		if !sub.TotalCost.Equal(decimal.RequireFromString("15.99")) {
			t.Errorf("TotalCost: got %s, want 15.99", sub.TotalCost)
		}
		if len(sub.Members) != 2 || sub.Members[0] != "alice" {
			t.Errorf("Members: got %v", sub.Members)
		}
		alice := loaded.Payments[models.PaymentKey("sub-1", "alice")]
		if alice == nil || !alice.Paid || alice.LastPayment == nil {
			t.Errorf("alice payment not restored: %+v", alice)
		}
		bob := loaded.Payments[models.PaymentKey("sub-1", "bob")]
		if bob == nil || bob.Paid || bob.LastPayment != nil {
			t.Errorf("bob payment not restored: %+v", bob)
		}
	})

	t.Run("Save leaves no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("unexpected temp file %s", e.Name())
			}
		}
	})

	t.Run("persisted layout has the three mappings", func(t *testing.T) {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		for _, key := range []string{`"subscriptions"`, `"groups"`, `"payments"`, `"last_payment": null`} {
			if !strings.Contains(string(data), key) {
				t.Errorf("expected %s in data file", key)
			}
		}
	})
}

func TestFileStore_LegacyNumericCosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{
  "subscriptions": {
    "-100_Netflix_1760000000.5": {
      "name": "Netflix",
      "group_id": "-100",
      "total_cost": 15.99,
      "members": ["alice", "bob", "carol"],
      "cost_per_person": 5.33,
      "created_at": "2026-10-01T12:00:00Z",
      "next_payment": "2026-10-31T12:00:00Z"
    }
  },
  "groups": {},
  "payments": {
    "-100_Netflix_1760000000.5_alice": {"paid": false, "last_payment": null}
  }
}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ledger, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sub := ledger.Subscriptions["-100_Netflix_1760000000.5"]
	if sub == nil {
		t.Fatal("expected legacy subscription")
	}
	if !sub.CostPerPerson.Equal(decimal.RequireFromString("5.33")) {
		t.Errorf("CostPerPerson: got %s, want 5.33", sub.CostPerPerson)
	}
	if sub.Key != "-100_Netflix_1760000000.5" {
		t.Errorf("Key: got %q", sub.Key)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("expected error for corrupt data file")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty path")
	}
}
