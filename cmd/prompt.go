package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jfmyers9/amzn/internal/config"
	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

// credentialPrompt asks for whatever the config does not provide. It only
// runs when Amazon actually presents a sign-in form.
type credentialPrompt struct {
	email        string
	in           io.Reader
	out          io.Writer
	getenv       func(string) string
	readPassword func() ([]byte, error)
}

func promptCredentials(email string, in io.Reader, out io.Writer) amazonmusic.CredentialsFunc {
	p := &credentialPrompt{
		email:        email,
		in:           in,
		out:          out,
		getenv:       os.Getenv,
		readPassword: terminalPassword(in),
	}
	return p.credentials
}

func (p *credentialPrompt) credentials(ctx context.Context) (amazonmusic.Credentials, error) {
	email := p.email
	if email == "" {
		fmt.Fprint(p.out, "Amazon email: ")
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return amazonmusic.Credentials{}, fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return amazonmusic.Credentials{}, errors.New("an email is required to sign in (set email in the config or pass --email)")
	}

	if password := p.getenv(config.PasswordEnv); password != "" {
		return amazonmusic.Credentials{Email: email, Password: []byte(password)}, nil
	}

	fmt.Fprintf(p.out, "Password for %s: ", email)
	password, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return amazonmusic.Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return amazonmusic.Credentials{}, errors.New("a password is required to sign in")
	}

	return amazonmusic.Credentials{Email: email, Password: password}, nil
}

// terminalPassword reads a password without echo when in is a terminal.
func terminalPassword(in io.Reader) func() ([]byte, error) {
	return func() ([]byte, error) {
		f, ok := in.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return nil, fmt.Errorf("no terminal to prompt on; set %s", config.PasswordEnv)
		}
		return term.ReadPassword(int(f.Fd()))
	}
}
