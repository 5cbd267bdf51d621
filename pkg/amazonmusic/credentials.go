package amazonmusic

import "context"

// Credentials are the account email and password used to submit the
// sign-in form. The password is a byte slice so that it can be wiped once
// sign-in is over.
type Credentials struct {
	Email    string
	Password []byte
}

// CredentialsFunc supplies credentials on demand. NewSession calls it at
// most once, and only when Amazon asks the client to sign in.
type CredentialsFunc func(ctx context.Context) (Credentials, error)

// StaticCredentials returns a CredentialsFunc for a fixed email and
// password. Each invocation hands out a fresh copy of the password.
func StaticCredentials(email, password string) CredentialsFunc {
	return func(ctx context.Context) (Credentials, error) {
		return Credentials{Email: email, Password: []byte(password)}, nil
	}
}

// secret holds credentials for the duration of a sign-in flow.
type secret struct {
	email    string
	password []byte
}

func newSecret(c Credentials) *secret {
	return &secret{email: c.Email, password: c.Password}
}

// wipe overwrites the password bytes and drops the email.
func (s *secret) wipe() {
	if s == nil {
		return
	}
	for i := range s.password {
		s.password[i] = 0
	}
	s.password = nil
	s.email = ""
}
