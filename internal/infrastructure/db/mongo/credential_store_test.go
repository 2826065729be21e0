package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/microtask/taskhub/internal/core/domain"
)

func TestCredentialDoc_BSONShape(t *testing.T) {
	cred := domain.PersistedCredential{
		Token: "tok",
		Snapshot: domain.Session{
			ID:          "u1",
			Email:       "b@example.com",
			Role:        domain.RoleBuyer,
			CoinBalance: 500,
			Optimistic:  true,
		},
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := bson.Marshal(toDoc("work", cred))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	doc := bson.Raw(raw)
	if id := doc.Lookup("_id").StringValue(); id != "work" {
		t.Errorf("expected profile as _id, got %q", id)
	}
	if coins := doc.Lookup("snapshot", "coins").AsInt64(); coins != 500 {
		t.Errorf("expected embedded snapshot coins 500, got %d", coins)
	}
	if _, err := doc.LookupErr("snapshot", "optimistic"); err == nil {
		t.Error("optimistic flag must not be persisted")
	}

	var back credentialDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := back.toDomain()
	if !got.Complete() || got.Snapshot.CoinBalance != 500 || got.Snapshot.Optimistic {
		t.Errorf("unexpected credential %+v", got)
	}
}

func TestCredentialDoc_HalfPairIsIncomplete(t *testing.T) {
	doc := credentialDoc{Profile: "default", Token: "orphan"}
	if doc.toDomain().Complete() {
		t.Error("token without snapshot must not be complete")
	}
}
