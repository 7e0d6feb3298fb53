package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// DemoPassword is the password of every demo user
const DemoPassword = "password"

// DemoUsers are created by SeedDemoUsers
var DemoUsers = []SignupInput{
	{Email: "john@smith.com", Username: "JohnSmith", FirstName: "John", LastName: "Smith"},
	{Email: "user1@user.io", Username: "FakeUser1", FirstName: "Crystal", LastName: "Salazar"},
	{Email: "user2@user.io", Username: "FakeUser2", FirstName: "Jordan", LastName: "Lee"},
	{Email: "demo@user.io", Username: "Demo-lition", FirstName: "Demo", LastName: "User"},
	{Email: "user3@user.io", Username: "FakeUser3", FirstName: "Tanya", LastName: "Smith"},
	{Email: "user4@user.io", Username: "FakeUser4", FirstName: "Andrew", LastName: "Ross"},
	{Email: "user5@user.io", Username: "FakeUser5", FirstName: "Jasmine", LastName: "Brown"},
	{Email: "user6@user.io", Username: "FakeUser6", FirstName: "Brianne", LastName: "Baker"},
	{Email: "user7@user.io", Username: "FakeUser7", FirstName: "Eddie", LastName: "Stewart"},
	{Email: "user8@user.io", Username: "FakeUser8", FirstName: "Kayla", LastName: "Williams"},
}

// SeedDemoUsers signs up the demo users. Users that already exist are
// skipped, so seeding twice is a no-op. It returns how many were created.
func SeedDemoUsers(ctx context.Context, accounts Accounts) (int, error) {
	created := 0
	for _, input := range DemoUsers {
		input.Password = DemoPassword
		if _, err := accounts.Signup(ctx, input); err != nil {
			var dup *DuplicateFieldError
			if goerrors.As(err, &dup) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
