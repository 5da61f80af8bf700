package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/mrudenko/user-management-api/pkg/result"
)

// Shared validators, immutable after init and safe for concurrent use.
var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ]+$`)
)

// User is the aggregate root for the user domain. PasswordHash is a bcrypt
// hash and is never exposed outside the application layer. A user is active
// while RevokedOn is nil.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	Name         string
	Gender       Gender
	Birthday     *time.Time
	Admin        bool
	CreatedOn    time.Time
	CreatedBy    string
	ModifiedOn   time.Time
	ModifiedBy   string
	RevokedOn    *time.Time
	RevokedBy    string
}

// Active reports whether the account has not been revoked.
func (u *User) Active() bool { return u.RevokedOn == nil }

// ValidName reports whether name satisfies the account name rule. Shared with
// the application layer so partial updates enforce the same constraint as
// construction.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != "" && namePattern.MatchString(name)
}

// NewUser validates and constructs a user record. Invalid input never reaches
// storage: a malformed login, name or missing password hash yields a Failure
// carrying the validation message.
func NewUser(
	id string,
	login string,
	passwordHash string,
	name string,
	gender Gender,
	birthday *time.Time,
	admin bool,
	createdOn time.Time,
	createdBy string,
) result.Result[*User] {
	if strings.TrimSpace(login) == "" || !loginPattern.MatchString(login) {
		return result.Failure[*User]("login must contain only Latin letters and digits")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return result.Failure[*User]("there must be a password")
	}
	if !ValidName(name) {
		return result.Failure[*User]("name must contain only Latin and Cyrillic letters")
	}
	if !gender.Valid() {
		return result.Failure[*User]("invalid gender value")
	}
	if birthday != nil && birthday.After(time.Now().UTC()) {
		return result.Failure[*User]("birthday cannot be in the future")
	}

	return result.Success(&User{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		Name:         name,
		Gender:       gender,
		Birthday:     birthday,
		Admin:        admin,
		CreatedOn:    createdOn,
		CreatedBy:    createdBy,
		ModifiedOn:   createdOn,
		ModifiedBy:   createdBy,
	})
}
