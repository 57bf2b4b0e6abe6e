// FILE: logbridge/src/cmd/logbridge/commands/version.go
package commands

import (
	"fmt"

	"logbridge/src/internal/version"
)

type VersionCommand struct{}

func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (c *VersionCommand) Execute(args []string) error {
	fmt.Println(version.String())
	return nil
}

func (c *VersionCommand) Description() string {
	return "Show version information"
}

func (c *VersionCommand) Help() string {
	return `Version Command - Show LogBridge version information

Usage:
  logbridge version
  logbridge -v
  logbridge --version
`
}
