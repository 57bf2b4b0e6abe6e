// FILE: logbridge/src/cmd/logbridge/commands/auth.go
package commands

import (
	"logbridge/src/internal/auth"
)

// AuthCommand generates credentials for the auth configuration sections
type AuthCommand struct {
	generator *auth.GeneratorCommand
}

func NewAuthCommand() *AuthCommand {
	return &AuthCommand{generator: auth.NewGeneratorCommand()}
}

func (c *AuthCommand) Execute(args []string) error {
	return c.generator.Execute(args)
}

func (c *AuthCommand) Description() string {
	return "Generate authentication credentials (password hashes, tokens, JWTs)"
}

func (c *AuthCommand) Help() string {
	return `Auth Command - Generate authentication credentials

Usage:
  logbridge auth -u <user> [-p <password>]     Argon2id PHC hash for basic auth
  logbridge auth -t [-l <bytes>]               Random bearer token
  logbridge auth -jwt -key <secret> [options]  Signed HS256 JWT

JWT options:
  -iss <issuer>     Issuer claim
  -aud <audience>   Audience claim
  -sub <subject>    Subject claim
  -ttl <duration>   Lifetime, e.g. 24h

The password is prompted without echo when -p is omitted.
`
}
