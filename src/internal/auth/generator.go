// FILE: logbridge/src/internal/auth/generator.go
package auth

import (
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"logbridge/src/internal/core"

	"golang.org/x/term"
)

// GeneratorCommand implements "logbridge auth": password hashes, bearer
// tokens and signed JWTs for the auth sections of the configuration.
type GeneratorCommand struct {
	output io.Writer
	errOut io.Writer

	// Reads a password without echo
	readPassword func(prompt string) (string, error)
}

func NewGeneratorCommand() *GeneratorCommand {
	g := &GeneratorCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
	g.readPassword = g.promptPassword
	return g
}

func (g *GeneratorCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("auth", flag.ContinueOnError)
	cmd.SetOutput(g.errOut)

	var (
		username = cmd.String("u", "", "Username for basic auth")
		password = cmd.String("p", "", "Password to hash (will prompt if not provided)")
		genToken = cmd.Bool("t", false, "Generate random bearer token")
		tokenLen = cmd.Int("l", core.DefaultTokenLength, "Token length in bytes")
		genJWT   = cmd.Bool("jwt", false, "Issue a signed JWT for bearer auth")
		jwtKey   = cmd.String("key", "", "JWT signing key (must match jwt.signing_key)")
		jwtIss   = cmd.String("iss", "", "JWT issuer")
		jwtAud   = cmd.String("aud", "", "JWT audience")
		jwtSub   = cmd.String("sub", "", "JWT subject")
		jwtTTL   = cmd.Duration("ttl", 24*time.Hour, "JWT lifetime")
	)

	cmd.Usage = func() {
		fmt.Fprintln(g.errOut, "Generate authentication credentials for LogBridge")
		fmt.Fprintln(g.errOut, "\nUsage: logbridge auth [options]")
		fmt.Fprintln(g.errOut, "\nExamples:")
		fmt.Fprintln(g.errOut, "  # Generate Argon2id hash for user")
		fmt.Fprintln(g.errOut, "  logbridge auth -u admin")
		fmt.Fprintln(g.errOut, "  ")
		fmt.Fprintln(g.errOut, "  # Generate 64-byte bearer token")
		fmt.Fprintln(g.errOut, "  logbridge auth -t -l 64")
		fmt.Fprintln(g.errOut, "  ")
		fmt.Fprintln(g.errOut, "  # Issue a JWT valid for one hour")
		fmt.Fprintln(g.errOut, "  logbridge auth -jwt -key secret -sub producer-1 -ttl 1h")
		fmt.Fprintln(g.errOut, "\nOptions:")
		cmd.PrintDefaults()
	}

	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *genJWT {
		return g.issueJWT(*jwtKey, JWTClaims{
			Subject:  *jwtSub,
			Issuer:   *jwtIss,
			Audience: *jwtAud,
			TTL:      *jwtTTL,
		})
	}

	if *genToken {
		return g.generateToken(*tokenLen)
	}

	if *username == "" {
		cmd.Usage()
		return fmt.Errorf("username required for password hash generation")
	}

	return g.generatePasswordHash(*username, *password)
}

func (g *GeneratorCommand) generatePasswordHash(username, password string) error {
	// Get password if not provided
	if password == "" {
		pass1, err := g.readPassword("Enter password: ")
		if err != nil {
			return err
		}
		pass2, err := g.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pass1 != pass2 {
			return fmt.Errorf("passwords don't match")
		}
		password = pass1
	}

	phcHash, err := HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.output, "\n# TOML Configuration (add to logbridge.toml):")
	fmt.Fprintln(g.output, "[[sources.http.auth.users]]")
	fmt.Fprintf(g.output, "username = %q\n", username)
	fmt.Fprintf(g.output, "password_hash = %q\n", phcHash)

	return nil
}

func (g *GeneratorCommand) generateToken(length int) error {
	if length < 16 {
		fmt.Fprintln(g.errOut, "Warning: tokens < 16 bytes are cryptographically weak")
	}

	token, err := GenerateToken(length)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.output, "\n# TOML Configuration (add to logbridge.toml):")
	fmt.Fprintf(g.output, "tokens = [%q]\n\n", token)

	fmt.Fprintln(g.output, "# Generated Token:")
	fmt.Fprintln(g.output, token)

	return nil
}

func (g *GeneratorCommand) issueJWT(key string, claims JWTClaims) error {
	token, err := IssueJWT(key, claims)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.output, "# Generated JWT (send as 'Authorization: Bearer <token>' or 'AUTH token <token>'):")
	fmt.Fprintln(g.output, token)
	fmt.Fprintf(g.output, "# Expires: %s\n", time.Now().Add(claims.TTL).UTC().Format(time.RFC3339))

	return nil
}

func (g *GeneratorCommand) promptPassword(prompt string) (string, error) {
	fmt.Fprint(g.errOut, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(g.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
