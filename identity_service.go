package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// dummyPassword is hashed once so that unknown credentials still pay for
// a bcrypt comparison.
const dummyPassword = "accounts-dummy-password"

// SignupInput holds the fields required to create an account
type SignupInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// ProfileChanges lists the editable profile fields. Empty values are
// ignored.
type ProfileChanges struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
}

// Service orchestrates signup, login and profile management on top of a
// UserDirectory and a PasswordHasher.
type Service struct {
	directory    UserDirectory
	hasher       PasswordHasher
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
	dummyDigest  string
}

// NewService returns a new identity Service
func NewService(directory UserDirectory, hasher PasswordHasher) *Service {
	s := &Service{
		directory:    directory,
		hasher:       hasher,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}

	if digest, err := hasher.Hash(dummyPassword); err == nil {
		s.dummyDigest = digest
	}

	return s
}

func (s *Service) WithLogger(logger Logger) *Service {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting account events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Signup creates a new account. Collisions on email or username return a
// *DuplicateFieldError, both when found up front and when reported by the
// directory on create.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*User, error) {
	email := NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	dup, err := s.duplicateFields(ctx, 0, email, username)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		s.logger.Debug("signup rejected, duplicate fields", "fields", dup.Fields)
		return nil, dup
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.directory.Create(ctx, &User{
		Email:          email,
		Username:       username,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		HashedPassword: digest,
	})
	if err != nil {
		return nil, s.mapUniqueViolation(ctx, err, 0, email, username)
	}

	s.emit(ctx, ActivityEventSignup, user.ID, map[string]any{
		"username": user.Username,
	})

	return user, nil
}

// Login resolves credential as either email or username and checks the
// password. A mismatch of any kind returns (nil, nil); the error is
// reserved for directory failures.
func (s *Service) Login(ctx context.Context, credential, password string) (*User, error) {
	user, err := s.directory.FindByEmailOrUsername(ctx, credential)
	if err != nil {
		if !isUserNotFound(err) {
			s.logger.Error("login lookup failed", "error", err)
			return nil, err
		}
		s.hasher.Verify(password, s.dummyDigest)
		s.emit(ctx, ActivityEventLoginFailure, 0, map[string]any{
			"credential": credential,
		})
		return nil, nil
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.emit(ctx, ActivityEventLoginFailure, user.ID, map[string]any{
			"credential": credential,
		})
		return nil, nil
	}

	s.emit(ctx, ActivityEventLoginSuccess, user.ID, map[string]any{
		"credential": credential,
	})

	return user, nil
}

// Logout records the event. Tokens are stateless so there is nothing to
// revoke.
func (s *Service) Logout(ctx context.Context, userID int64) {
	s.emit(ctx, ActivityEventLogout, userID, nil)
}

// FindUser returns the user with the given id or ErrUserNotFound
func (s *Service) FindUser(ctx context.Context, id int64) (*User, error) {
	return s.directory.FindByID(ctx, id)
}

// UpdateProfile applies the non empty changes to the user's profile
func (s *Service) UpdateProfile(ctx context.Context, userID int64, changes ProfileChanges) (*User, error) {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	checkEmail, checkUsername := "", ""

	if v := strings.TrimSpace(changes.FirstName); v != "" && v != user.FirstName {
		user.FirstName = v
		changed = append(changed, "firstName")
	}

	if v := strings.TrimSpace(changes.LastName); v != "" && v != user.LastName {
		user.LastName = v
		changed = append(changed, "lastName")
	}

	if v := NormalizeEmail(changes.Email); v != "" && v != user.Email {
		user.Email = v
		checkEmail = v
		changed = append(changed, FieldEmail)
	}

	if v := strings.TrimSpace(changes.Username); v != "" && v != user.Username {
		user.Username = v
		checkUsername = v
		changed = append(changed, FieldUsername)
	}

	if len(changed) == 0 {
		return user, nil
	}

	dup, err := s.duplicateFields(ctx, user.ID, checkEmail, checkUsername)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, dup
	}

	updated, err := s.directory.Update(ctx, user)
	if err != nil {
		return nil, s.mapUniqueViolation(ctx, err, user.ID, checkEmail, checkUsername)
	}

	s.emit(ctx, ActivityEventProfileUpdated, updated.ID, map[string]any{
		"fields": changed,
	})

	return updated, nil
}

// DeleteAccount removes the user record
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.directory.Delete(ctx, user); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventAccountDeleted, user.ID, map[string]any{
		"username": user.Username,
	})

	return nil
}

// duplicateFields reports which of email and username already belong to
// a user other than selfID. Empty values are skipped.
func (s *Service) duplicateFields(ctx context.Context, selfID int64, email, username string) (*DuplicateFieldError, error) {
	fields := []string{}

	check := func(value, field string, match func(*User) bool) error {
		if value == "" {
			return nil
		}
		found, err := s.directory.FindByEmailOrUsername(ctx, value)
		if err != nil {
			if isUserNotFound(err) {
				return nil
			}
			return err
		}
		if found.ID != selfID && match(found) {
			fields = append(fields, field)
		}
		return nil
	}

	if err := check(email, FieldEmail, func(u *User) bool { return u.Email == email }); err != nil {
		return nil, err
	}

	if err := check(username, FieldUsername, func(u *User) bool { return u.Username == username }); err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, nil
	}

	return newDuplicateFieldError(fields...), nil
}

// mapUniqueViolation turns a directory uniqueness error into a
// *DuplicateFieldError. When the directory can't name the column the
// fields are looked up again.
func (s *Service) mapUniqueViolation(ctx context.Context, err error, selfID int64, email, username string) error {
	var uv *UniqueViolationError
	if !goerrors.As(err, &uv) {
		return err
	}

	if uv.Field != "" {
		return newDuplicateFieldError(uv.Field)
	}

	dup, lookupErr := s.duplicateFields(ctx, selfID, email, username)
	if lookupErr == nil && dup != nil {
		return dup
	}

	fields := []string{}
	if email != "" {
		fields = append(fields, FieldEmail)
	}
	if username != "" {
		fields = append(fields, FieldUsername)
	}
	return newDuplicateFieldError(fields...)
}

func (s *Service) emit(ctx context.Context, eventType ActivityEventType, userID int64, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func isUserNotFound(err error) bool {
	return goerrors.Is(err, ErrUserNotFound) || goerrors.IsNotFound(err)
}
