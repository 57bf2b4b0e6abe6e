// FILE: logbridge/src/cmd/logbridge/commands/help.go
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const generalHelpTemplate = `LogBridge: forwards log records from concurrent producers to one host-side consumer.

Usage:
  logbridge [command] [options]
  logbridge [options]

Commands:
%s
Application Options:
  -c, --config <path>      Path to configuration file (default: ~/.config/logbridge.toml)
  -h, --help               Display this help message and exit
  -v, --version            Display version information and exit
  -q, --quiet              Suppress all console output, including errors

Any other --section.key=value argument overrides the configuration,
for example --bridge.policy.default_level=debug

For command-specific help:
  logbridge help <command>
  logbridge <command> --help

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - CLI arguments override all other settings
  - LOGBRIDGE_* environment variables override file settings
  - TOML configuration file is the primary method

Examples:
  # Start with a custom config
  logbridge -c /etc/logbridge/prod.toml

  # Send a record to a running instance
  logbridge emit -level warn -target proxy "upstream slow"
`

type HelpCommand struct {
	router *CommandRouter
	output io.Writer
}

func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router, output: os.Stdout}
}

func (c *HelpCommand) Execute(args []string) error {
	if len(args) > 0 && args[0] != "" {
		cmdName := args[0]

		if handler, exists := c.router.GetCommand(cmdName); exists {
			fmt.Fprint(c.output, handler.Help())
			return nil
		}

		return fmt.Errorf("unknown command: %s", cmdName)
	}

	fmt.Fprintf(c.output, generalHelpTemplate, c.formatCommandList())
	return nil
}

func (c *HelpCommand) Description() string {
	return "Display help information"
}

func (c *HelpCommand) Help() string {
	return `Help Command - Show LogBridge help

Usage:
  logbridge help [command]
`
}

func (c *HelpCommand) formatCommandList() string {
	var b strings.Builder
	for _, name := range c.router.names() {
		handler := c.router.commands[name]
		fmt.Fprintf(&b, "  %-24s %s\n", name, handler.Description())
	}
	return b.String()
}
