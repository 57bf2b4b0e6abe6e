// FILE: logbridge/src/cmd/logbridge/flags.go
package main

import "strings"

// appFlags are the options main handles itself; everything else is passed
// to the configuration loader as CLI overrides.
type appFlags struct {
	configFile  string
	quiet       bool
	showVersion bool
	configArgs  []string
}

func parseAppFlags(args []string) appFlags {
	var f appFlags

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				f.configFile = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			f.configFile = strings.TrimPrefix(arg, "--config=")
		case arg == "-q" || arg == "--quiet":
			f.quiet = true
		case arg == "-v" || arg == "--version":
			f.showVersion = true
		default:
			f.configArgs = append(f.configArgs, arg)
		}
	}

	return f
}
