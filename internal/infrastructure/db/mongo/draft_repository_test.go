package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

func TestMongoDraft_OmitsSecrets(t *testing.T) {
	d := &domain.RegistrationDraft{
		ID: "d1",
		Form: domain.RegistrationForm{
			Name:     "Ana",
			Password: "hunter22",
			Courses:  []string{"CS101"},
		},
		UpdatedAt: time.Unix(1700000000, 0),
		ExpiresAt: time.Unix(1700600000, 0),
	}

	raw, err := bson.Marshal(toMongoDraft(d))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["_id"] != "d1" || m["name"] != "Ana" {
		t.Fatalf("unexpected document %v", m)
	}
	for _, k := range []string{"password", "confirm_password"} {
		if _, ok := m[k]; ok {
			t.Fatalf("%s must not be stored", k)
		}
	}
}

func TestFromMongoDraft(t *testing.T) {
	doc := mongoDraft{ID: "d2", Email: "a@b.c", UpdatedAt: 1700000000, ExpiresAt: time.Unix(1700600000, 0)}
	d := fromMongoDraft(doc)
	if d.ID != "d2" || d.Form.Email != "a@b.c" || d.UpdatedAt.Unix() != 1700000000 {
		t.Fatalf("unexpected draft %+v", d)
	}
}
