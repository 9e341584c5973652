package users

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"notes-backend/internal/access"
)

func newTestService() *Service {
	svc := NewService(NewMemoryRepo())
	svc.Cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Ada",
		Email:    " Ada@Example.com ",
		Password: "correct horse",
		Role:     "teacher",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" || user.Role != access.RoleTeacher {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear")
	}

	got, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned %s, want %s", got.ID, user.ID)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "missing name", in: RegisterInput{Email: "a@b.co", Password: "longenough"}, want: ErrInvalidInput},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "nope", Password: "longenough"}, want: ErrInvalidInput},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}, want: ErrInvalidInput},
		{name: "bad role", in: RegisterInput{Name: "A", Email: "a@b.co", Password: "longenough", Role: "admin"}, want: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDefaultsToStudentAndRejectsDuplicates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	in := RegisterInput{Name: "Sam", Email: "sam@example.com", Password: "password1"}

	user, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != access.RoleStudent {
		t.Fatalf("expected student default, got %s", user.Role)
	}
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestFindIdentity(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Name: "T", Email: "t@example.com", Password: "password1", Role: "teacher"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	id, err := svc.FindIdentity(ctx, user.ID)
	if err != nil {
		t.Fatalf("find identity: %v", err)
	}
	if id.UserID != user.ID || id.Role != access.RoleTeacher {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if _, err := svc.FindIdentity(ctx, "missing"); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
