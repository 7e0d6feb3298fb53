package accounts

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	msgInvalidEmail      = "Please provide a valid email."
	msgUsernameLength    = "Please provide a username with at least 4 characters."
	msgUsernameIsEmail   = "Username cannot be an email."
	msgFirstNameLength   = "First name is required with at least 2 characters."
	msgLastNameLength    = "Last name is required with at least 2 characters."
	msgPasswordLength    = "Password must be 6 characters or more."
	msgPasswordTooLong   = "Password must be 72 bytes or less."
	msgCredentialMissing = "Email or username is required."
	msgPasswordMissing   = "Password is required."
)

// SignupPayload is the POST /api/users/signup body
type SignupPayload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// normalize trims every field except the password, so the rules below see
// the values that will be stored.
func (r *SignupPayload) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	r.normalize()
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required.Error(msgInvalidEmail),
			is.Email.Error(msgInvalidEmail),
		),
		validation.Field(
			&r.Username,
			validation.Required.Error(msgUsernameLength),
			validation.Length(4, 0).Error(msgUsernameLength),
			validation.By(notAnEmail),
		),
		validation.Field(
			&r.FirstName,
			validation.Required.Error(msgFirstNameLength),
			validation.Length(2, 0).Error(msgFirstNameLength),
		),
		validation.Field(
			&r.LastName,
			validation.Required.Error(msgLastNameLength),
			validation.Length(2, 0).Error(msgLastNameLength),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error(msgPasswordLength),
			validation.Length(6, 0).Error(msgPasswordLength),
			validation.By(maxPasswordBytes),
		),
	)
}

// Input converts the payload into the service input
func (r SignupPayload) Input() SignupInput {
	r.normalize()
	return SignupInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// LoginPayload is the POST /api/session body
type LoginPayload struct {
	Credential string `json:"credential"`
	Password   string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	r.Credential = strings.TrimSpace(r.Credential)
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Credential,
			validation.Required.Error(msgCredentialMissing),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error(msgPasswordMissing),
		),
	)
}

// ProfilePayload is the PUT /api/users/profile body. Empty fields are
// left untouched.
type ProfilePayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

func (r *ProfilePayload) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

// Validate will run validation rules
func (r ProfilePayload) Validate() error {
	r.normalize()
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email.Error(msgInvalidEmail)),
		validation.Field(
			&r.Username,
			validation.Length(4, 0).Error(msgUsernameLength),
			validation.By(notAnEmail),
		),
		validation.Field(&r.FirstName, validation.Length(2, 0).Error(msgFirstNameLength)),
		validation.Field(&r.LastName, validation.Length(2, 0).Error(msgLastNameLength)),
	)
}

// Changes converts the payload into the service input
func (r ProfilePayload) Changes() ProfileChanges {
	r.normalize()
	return ProfileChanges{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Username:  r.Username,
	}
}

func notAnEmail(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if is.Email.Validate(s) == nil {
		return errors.New(msgUsernameIsEmail)
	}
	return nil
}

// maxPasswordBytes counts bytes, not runes: bcrypt's limit is on the
// encoded password.
func maxPasswordBytes(value any) error {
	s, _ := value.(string)
	if len(s) > MaxPasswordBytes {
		return errors.New(msgPasswordTooLong)
	}
	return nil
}

// ValidationError converts ozzo validation errors into the structured
// error rendered by the HTTP layer. Field names follow the json tags.
func ValidationError(err error) *goerrors.Error {
	fields := map[string]string{}

	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	} else if err != nil {
		fields["body"] = err.Error()
	}

	return goerrors.New("Bad request.", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeValidation).
		WithMetadata(map[string]any{
			"errors": fields,
		})
}
