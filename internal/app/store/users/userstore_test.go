package userstore

import (
	"errors"
	"testing"

	"github.com/promanagehq/promanage/internal/domain/models"
	"github.com/promanagehq/promanage/internal/testutil"
)

func TestCreateNormalizesEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	u, err := store.Create(ctx, models.User{
		Name:     "Ada",
		Email:    "  Ada@Test.COM ",
		Password: "hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ada@test.com" {
		t.Errorf("email: got %q", u.Email)
	}
	if u.Role != models.RoleMember {
		t.Errorf("default role: got %q", u.Role)
	}

	found, err := store.GetByEmail(ctx, "ADA@test.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("lookup returned wrong user")
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	if _, err := store.Create(ctx, models.User{Name: "Ada", Email: "ada@test.com", Password: "h"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Ada 2", Email: "ada@test.com", Password: "h"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	if _, err := store.Create(ctx, models.User{Name: "X", Email: "x@test.com", Password: "h", Role: "wizard"}); err == nil {
		t.Error("unknown role should fail")
	}
}
