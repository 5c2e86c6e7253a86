package identity

import (
	"context"
	"errors"
	"testing"

	"phambili/internal/storage"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(storage.NewMemory())

	user, err := reg.Register(ctx, "Thandi", "thandi@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == "" {
		t.Fatal("registered user has no id")
	}
	if user.EncodedPassword == "hunter22" {
		t.Fatal("password stored in the clear")
	}

	if _, ok := reg.CurrentUserID(ctx); ok {
		t.Fatal("registration should not log the user in")
	}

	got, err := reg.Login(ctx, "THANDI@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Fatalf("logged in as %q, want %q", got.ID, user.ID)
	}
	id, ok := reg.CurrentUserID(ctx)
	if !ok || id != user.ID {
		t.Fatalf("current user = %q, %v", id, ok)
	}

	if err := reg.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.CurrentUserID(ctx); ok {
		t.Fatal("still logged in after logout")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(storage.NewMemory())

	if _, err := reg.Register(ctx, "A", "a@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Register(ctx, "B", "A@Example.COM", "pw2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(storage.NewMemory())
	if _, err := reg.Register(ctx, "A", "a@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestStaticProvider(t *testing.T) {
	if id, ok := Static("u1").CurrentUserID(context.Background()); !ok || id != "u1" {
		t.Fatalf("got %q, %v", id, ok)
	}
	if _, ok := Static("").CurrentUserID(context.Background()); ok {
		t.Fatal("empty static provider should report no user")
	}
}
