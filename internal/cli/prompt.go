package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPrompter collects login credentials from the controlling
// terminal. The password is read with echo disabled when stdin is a
// terminal; piped stdin falls back to a plain line read so scripted
// logins still work.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p *terminalPrompter) Credentials(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	fmt.Fprint(p.out, "Email: ")
	email, err := p.readLine()
	if err != nil {
		return "", "", fmt.Errorf("reading email: %w", err)
	}
	if email == "" {
		return "", "", fmt.Errorf("email must not be empty")
	}

	fd := int(os.Stdin.Fd())
	var password string
	if term.IsTerminal(fd) {
		fmt.Fprint(p.out, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	} else {
		fmt.Fprint(p.out, "Password: ")
		password, err = p.readLine()
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
	}
	if password == "" {
		return "", "", fmt.Errorf("password must not be empty")
	}

	return email, password, nil
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
