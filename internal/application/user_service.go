package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// PasswordHasher turns a plaintext password into its stored hash.
type PasswordHasher func(password string) (string, error)

// UserService manages the employee directory. Creation, updates, and deletion
// are admin-only; every authenticated user may read.
type UserService struct {
	users        persistence.UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a UserService with the provided dependencies.
func NewUserService(users persistence.UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		hashPassword: hash,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a new user. Admin only.
func (s *UserService) CreateUser(ctx context.Context, principal Principal, input CreateUserInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if err = validateUserInput(input); err != nil {
		return
	}

	hash, hashErr := s.hashPassword(input.Password)
	if hashErr != nil {
		err = fmt.Errorf("failed to hash password: %w", hashErr)
		return
	}

	now := s.now()
	user = persistence.User{
		ID:           s.idGenerator(),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Department:   strings.TrimSpace(input.Department),
		Role:         strings.TrimSpace(input.Role),
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = mapRepoError("create user", s.users.CreateUser(ctx, user)); err != nil {
		user = persistence.User{}
		return
	}
	user.PasswordHash = ""
	return
}

// UpdateUser applies the provided changes. Admins may update anyone; a user
// may update their own display fields and password but not flags.
func (s *UserService) UpdateUser(ctx context.Context, principal Principal, userID string, input UpdateUserInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.IsAdmin && principal.UserID != userID {
		err = ErrUnauthorized
		return
	}
	if !principal.IsAdmin && (input.IsAdmin != nil || input.Disabled != nil) {
		err = ErrUnauthorized
		return
	}

	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapRepoError("update user", err)
		return
	}

	vErr := &ValidationError{}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if !strings.Contains(email, "@") {
			vErr.add("email", "이메일 형식이 올바르지 않습니다")
		}
		user.Email = email
	}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			vErr.add("displayName", "이름을 입력해 주세요")
		}
		user.DisplayName = name
	}
	if input.Department != nil {
		user.Department = strings.TrimSpace(*input.Department)
	}
	if input.Role != nil {
		user.Role = strings.TrimSpace(*input.Role)
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			vErr.add("password", "비밀번호는 8자 이상이어야 합니다")
		} else {
			hash, hashErr := s.hashPassword(*input.Password)
			if hashErr != nil {
				err = fmt.Errorf("failed to hash password: %w", hashErr)
				return
			}
			user.PasswordHash = hash
		}
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}
	if vErr.HasErrors() {
		err = vErr
		user = persistence.User{}
		return
	}

	user.UpdatedAt = s.now()
	if err = mapRepoError("update user", s.users.UpdateUser(ctx, user)); err != nil {
		user = persistence.User{}
		return
	}
	user.PasswordHash = ""
	return
}

// GetUser returns a single user without its password hash.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepoError("get user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns the directory without password hashes.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError("list users", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// DeleteUser removes a user. Admin only; admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("userId", "자기 자신은 삭제할 수 없습니다")
		return vErr
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	if err := mapRepoError("delete user", s.users.DeleteUser(ctx, userID)); err != nil {
		logger.ErrorContext(ctx, "user deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "user deleted")
	return nil
}

func validateUserInput(input CreateUserInput) error {
	vErr := &ValidationError{}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "이메일 형식이 올바르지 않습니다")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("displayName", "이름을 입력해 주세요")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "비밀번호는 8자 이상이어야 합니다")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
