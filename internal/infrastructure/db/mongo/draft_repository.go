package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

const draftCollection = "registration_drafts"

// DraftRepository implements ports.DraftRepository.
type DraftRepository struct {
	coll *mongo.Collection
}

func NewDraftRepository(db *mongo.Database) *DraftRepository {
	return &DraftRepository{coll: db.Collection(draftCollection)}
}

type mongoDraft struct {
	ID           string   `bson:"_id"`
	Name         string   `bson:"name,omitempty"`
	Email        string   `bson:"email,omitempty"`
	StudentID    string   `bson:"student_id,omitempty"`
	Degree       string   `bson:"degree,omitempty"`
	Courses      []string `bson:"courses,omitempty"`
	Availability []string `bson:"availability,omitempty"`
	UpdatedAt    int64    `bson:"updated_at"`
	// ExpiresAt is a BSON date so the TTL index can act on it.
	ExpiresAt time.Time `bson:"expires_at"`
}

// EnsureIndexes creates the TTL index that lets MongoDB drop expired drafts.
func (r *DraftRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return fmt.Errorf("create draft ttl index: %w", err)
	}
	return nil
}

func (r *DraftRepository) Upsert(ctx context.Context, draft *domain.RegistrationDraft) error {
	doc := toMongoDraft(draft)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) FindByID(ctx context.Context, id string) (*domain.RegistrationDraft, error) {
	var doc mongoDraft
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("find draft: %w", err)
	}
	return fromMongoDraft(doc), nil
}

func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func toMongoDraft(d *domain.RegistrationDraft) mongoDraft {
	return mongoDraft{
		ID:           d.ID,
		Name:         d.Form.Name,
		Email:        d.Form.Email,
		StudentID:    d.Form.StudentID,
		Degree:       d.Form.Degree,
		Courses:      d.Form.Courses,
		Availability: d.Form.Availability,
		UpdatedAt:    d.UpdatedAt.Unix(),
		ExpiresAt:    d.ExpiresAt.UTC(),
	}
}

func fromMongoDraft(doc mongoDraft) *domain.RegistrationDraft {
	return &domain.RegistrationDraft{
		ID: doc.ID,
		Form: domain.RegistrationForm{
			Name:         doc.Name,
			Email:        doc.Email,
			StudentID:    doc.StudentID,
			Degree:       doc.Degree,
			Courses:      doc.Courses,
			Availability: doc.Availability,
		},
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
		ExpiresAt: doc.ExpiresAt.UTC(),
	}
}
