package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microtask/taskhub/internal/core/domain"
)

const credentialCollection = "credentials"

// credentialDoc keeps token and snapshot in one document keyed by profile,
// so a single ReplaceOne swaps both.
type credentialDoc struct {
	Profile  string         `bson:"_id"`
	Token    string         `bson:"token"`
	Snapshot domain.Session `bson:"snapshot"`
	SavedAt  time.Time      `bson:"saved_at"`
}

func toDoc(profile string, cred domain.PersistedCredential) credentialDoc {
	return credentialDoc{
		Profile:  profile,
		Token:    cred.Token,
		Snapshot: cred.Snapshot,
		SavedAt:  cred.SavedAt.UTC(),
	}
}

func (d credentialDoc) toDomain() domain.PersistedCredential {
	return domain.PersistedCredential{Token: d.Token, Snapshot: d.Snapshot, SavedAt: d.SavedAt}
}

type CredentialStore struct {
	coll    *mongo.Collection
	db      *mongo.Database
	profile string
}

func NewCredentialStore(db *mongo.Database, profile string) *CredentialStore {
	if profile == "" {
		profile = "default"
	}
	return &CredentialStore{coll: db.Collection(credentialCollection), db: db, profile: profile}
}

func (s *CredentialStore) Load(ctx context.Context) (*domain.PersistedCredential, error) {
	var doc credentialDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.profile}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}

	cred := doc.toDomain()
	if !cred.Complete() {
		if err := s.Delete(ctx); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoCredential
	}
	return &cred, nil
}

func (s *CredentialStore) Save(ctx context.Context, cred domain.PersistedCredential) error {
	if !cred.Complete() {
		return domain.ErrIncompleteCredential
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": s.profile},
		toDoc(s.profile, cred),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.profile}); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Check pings the server backing the credential collection.
func (s *CredentialStore) Check(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
