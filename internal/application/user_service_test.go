package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/testfixtures"
)

func plainHasher(password string) (string, error) {
	return "hashed:" + password, nil
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}

	t.Run("creates a user with normalised fields", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		svc := NewUserService(users, plainHasher, testfixtures.NewIDGenerator("user").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		user, err := svc.CreateUser(context.Background(), admin, CreateUserInput{
			Email:       " New.Hire@Example.COM ",
			DisplayName: " 김철수 ",
			Department:  "개발팀",
			Role:        "사원",
			Password:    "password123",
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.Email != "new.hire@example.com" {
			t.Fatalf("expected lowered trimmed email, got %q", user.Email)
		}
		if user.DisplayName != "김철수" {
			t.Fatalf("expected trimmed display name, got %q", user.DisplayName)
		}
		if user.PasswordHash != "" {
			t.Fatal("expected the result to omit the password hash")
		}
		stored := users.users[user.ID]
		if stored.PasswordHash != "hashed:password123" {
			t.Fatalf("expected the stored hash, got %q", stored.PasswordHash)
		}
	})

	t.Run("is admin only", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil, nil)
		_, err := svc.CreateUser(context.Background(), Principal{UserID: "user-1"}, CreateUserInput{
			Email: "a@b.c", DisplayName: "a", Password: "password123",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates email, name, and password length", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil, nil)
		_, err := svc.CreateUser(context.Background(), admin, CreateUserInput{Email: "nope", DisplayName: " ", Password: "short"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		for _, field := range []string{"email", "displayName", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected a field error for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("maps duplicate emails to the exists sentinel", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "user-1", Email: "taken@example.com"})
		svc := NewUserService(users, plainHasher, testfixtures.NewIDGenerator("user").NextFunc(), nil, nil)

		_, err := svc.CreateUser(context.Background(), admin, CreateUserInput{
			Email: "taken@example.com", DisplayName: "dup", Password: "password123",
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	seedUser := func() (*userRepositoryStub, persistence.User) {
		users := newUserRepositoryStub()
		user := persistence.User{ID: "user-1", Email: "user@example.com", DisplayName: "사용자", PasswordHash: "hashed:old"}
		users.seed(user)
		return users, user
	}

	t.Run("users may update their own profile", func(t *testing.T) {
		t.Parallel()

		users, _ := seedUser()
		svc := NewUserService(users, plainHasher, nil, testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		name := "새 이름"
		updated, err := svc.UpdateUser(context.Background(), Principal{UserID: "user-1"}, "user-1", UpdateUserInput{DisplayName: &name})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if updated.DisplayName != "새 이름" {
			t.Fatalf("expected updated name, got %q", updated.DisplayName)
		}
	})

	t.Run("non-admins cannot touch the admin or disabled flags", func(t *testing.T) {
		t.Parallel()

		users, _ := seedUser()
		svc := NewUserService(users, plainHasher, nil, nil, nil)

		isAdmin := true
		_, err := svc.UpdateUser(context.Background(), Principal{UserID: "user-1"}, "user-1", UpdateUserInput{IsAdmin: &isAdmin})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("non-admins cannot update other users", func(t *testing.T) {
		t.Parallel()

		users, _ := seedUser()
		svc := NewUserService(users, plainHasher, nil, nil, nil)

		name := "x"
		_, err := svc.UpdateUser(context.Background(), Principal{UserID: "user-2"}, "user-1", UpdateUserInput{DisplayName: &name})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("admins may disable accounts", func(t *testing.T) {
		t.Parallel()

		users, _ := seedUser()
		svc := NewUserService(users, plainHasher, nil, testfixtures.NewClock(time.Time{}).NowFunc(), nil)

		disabled := true
		updated, err := svc.UpdateUser(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "user-1", UpdateUserInput{Disabled: &disabled})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if !updated.Disabled {
			t.Fatal("expected the account to be disabled")
		}
	})

	t.Run("rejects short replacement passwords", func(t *testing.T) {
		t.Parallel()

		users, _ := seedUser()
		svc := NewUserService(users, plainHasher, nil, nil, nil)

		password := "short"
		_, err := svc.UpdateUser(context.Background(), Principal{UserID: "user-1"}, "user-1", UpdateUserInput{Password: &password})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		users.seed(persistence.User{ID: "admin"})
		svc := NewUserService(users, plainHasher, nil, nil, nil)

		err := svc.DeleteUser(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "admin")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("maps missing users to the not-found sentinel", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil, nil)
		if err := svc.DeleteUser(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_Reads(t *testing.T) {
	t.Parallel()

	users := newUserRepositoryStub()
	users.seed(persistence.User{ID: "user-1", Email: "a@example.com", PasswordHash: "hashed:a"})
	users.seed(persistence.User{ID: "user-2", Email: "b@example.com", PasswordHash: "hashed:b"})
	svc := NewUserService(users, plainHasher, nil, nil, nil)

	t.Run("single reads omit the password hash", func(t *testing.T) {
		user, err := svc.GetUser(context.Background(), Principal{UserID: "user-2"}, "user-1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.PasswordHash != "" {
			t.Fatal("expected password hash to be stripped")
		}
	})

	t.Run("listing omits password hashes", func(t *testing.T) {
		list, err := svc.ListUsers(context.Background(), Principal{UserID: "user-1"})
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected two users, got %d", len(list))
		}
		for _, user := range list {
			if user.PasswordHash != "" {
				t.Fatalf("expected stripped hash for %s", user.ID)
			}
		}
	})
}
