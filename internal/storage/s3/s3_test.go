package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/shopspring/decimal"

	"github.com/mmynk/subsplit/internal/models"
)

// fakeS3 keeps objects in memory, keyed by bucket/key.
type fakeS3 struct {
	objects map[string][]byte
	failPut error
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, input *awss3.GetObjectInput, opts ...request.Option) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return nil, awserr.New(awss3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *awss3.PutObjectInput, opts ...request.Option) (*awss3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Bucket+"/"+*input.Key] = data
	return &awss3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: make(map[string][]byte)}
	store := newWithClient(fake, "ledgers", "")

	t.Run("Load of missing object returns empty ledger", func(t *testing.T) {
		ledger, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(ledger.Subscriptions) != 0 {
			t.Errorf("expected empty ledger, got %d subscriptions", len(ledger.Subscriptions))
		}
	})

	t.Run("Save then Load round trips", func(t *testing.T) {
		ledger := models.NewLedger()
		now := time.Now().UTC()
		ledger.Subscriptions["k"] = &models.Subscription{
			Key: "k", Name: "Disney+", GroupID: "g", TotalCost: decimal.RequireFromString("13.99"),
			Members: []string{"a", "b", "c", "d"}, CostPerPerson: decimal.RequireFromString("3.5"),
			CreatedAt: now, NextPayment: now.Add(models.BillingPeriod),
		}

		if err := store.Save(ctx, ledger); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, ok := fake.objects["ledgers/"+DefaultObjectKey]; !ok {
			t.Fatal("expected object under default key")
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		sub := loaded.Subscriptions["k"]
		if sub == nil || sub.Name != "Disney+" || len(sub.Members) != 4 {
			t.Errorf("subscription not restored: %+v", sub)
		}
	})

	t.Run("Save surfaces errors", func(t *testing.T) {
		fake.failPut = errors.New("AccessDenied")
		defer func() { fake.failPut = nil }()

		if err := store.Save(ctx, models.NewLedger()); err == nil {
			t.Error("expected save error")
		}
	})
}

func TestNew_RequiresBucketAndRegion(t *testing.T) {
	if _, err := New(Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error without bucket")
	}
	if _, err := New(Config{Bucket: "b"}); err == nil {
		t.Error("expected error without region")
	}
}
