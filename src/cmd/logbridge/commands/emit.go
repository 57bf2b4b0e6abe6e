// FILE: logbridge/src/cmd/logbridge/commands/emit.go
package commands

import (
	"bufio"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"logbridge/src/internal/core"
	"logbridge/src/internal/version"

	"github.com/valyala/fasthttp"
)

// EmitCommand sends one record to a running instance through its HTTP or
// TCP source
type EmitCommand struct {
	output io.Writer
	errOut io.Writer
}

func NewEmitCommand() *EmitCommand {
	return &EmitCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
}

type emitOptions struct {
	httpURL  string
	tcpAddr  string
	token    string
	username string
	password string
	timeout  time.Duration
}

func (c *EmitCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("emit", flag.ContinueOnError)
	cmd.SetOutput(c.errOut)

	var (
		levelName = cmd.String("level", "info", "Record level: trace, debug, info, warn, error")
		target    = cmd.String("target", "cli", "Record target")
		file      = cmd.String("file", "", "Source file of the record")
		line      = cmd.Int("line", 0, "Source line of the record")
		opts      emitOptions
	)
	cmd.StringVar(&opts.httpURL, "http", "http://localhost:8081/emit", "HTTP source ingest URL")
	cmd.StringVar(&opts.tcpAddr, "tcp", "", "TCP source address host:port (overrides -http)")
	cmd.StringVar(&opts.token, "token", "", "Bearer token or JWT")
	cmd.StringVar(&opts.username, "user", "", "Basic auth username")
	cmd.StringVar(&opts.password, "password", "", "Basic auth password")
	cmd.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Request timeout")

	cmd.Usage = func() {
		fmt.Fprint(c.errOut, c.Help())
		fmt.Fprintln(c.errOut, "\nOptions:")
		cmd.PrintDefaults()
	}

	if err := cmd.Parse(args); err != nil {
		return err
	}

	message := strings.Join(cmd.Args(), " ")
	if message == "" {
		return fmt.Errorf("message required")
	}

	level, err := core.ParseLevel(*levelName)
	if err != nil {
		return err
	}

	rec := core.NewRecordAt(level, *target, message, *file, *line)
	payload, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if opts.tcpAddr != "" {
		if err := sendTCP(payload, opts); err != nil {
			return err
		}
		fmt.Fprintf(c.output, "Sent %s record to tcp://%s\n", level, opts.tcpAddr)
		return nil
	}

	if err := sendHTTP(payload, opts); err != nil {
		return err
	}
	fmt.Fprintf(c.output, "Sent %s record to %s\n", level, opts.httpURL)
	return nil
}

func (c *EmitCommand) Description() string {
	return "Send a log record to a running instance"
}

func (c *EmitCommand) Help() string {
	return `Emit Command - Send a log record to a running LogBridge

Usage:
  logbridge emit [options] <message>

Examples:
  logbridge emit -level warn -target proxy "upstream slow"
  logbridge emit -tcp localhost:9090 -token <token> "hello"
`
}

func sendHTTP(payload []byte, opts emitOptions) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(opts.httpURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.SetUserAgent(version.ServerName())
	if header := authorizationHeader(opts); header != "" {
		req.Header.Set("Authorization", header)
	}
	req.SetBody(payload)

	if err := fasthttp.DoTimeout(req, resp, opts.timeout); err != nil {
		return fmt.Errorf("failed to send record: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusAccepted {
		return fmt.Errorf("record rejected with status %d: %s",
			resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

func authorizationHeader(opts emitOptions) string {
	switch {
	case opts.token != "":
		return "Bearer " + opts.token
	case opts.username != "":
		return "Basic " + basicCredentials(opts)
	default:
		return ""
	}
}

func basicCredentials(opts emitOptions) string {
	return base64.StdEncoding.EncodeToString([]byte(opts.username + ":" + opts.password))
}

func sendTCP(payload []byte, opts emitOptions) error {
	conn, err := net.DialTimeout("tcp", opts.tcpAddr, opts.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(opts.timeout)); err != nil {
		return err
	}

	var authLine string
	switch {
	case opts.token != "":
		authLine = "AUTH token " + opts.token + "\n"
	case opts.username != "":
		authLine = "AUTH basic " + basicCredentials(opts) + "\n"
	}

	if authLine != "" {
		if _, err := conn.Write([]byte(authLine)); err != nil {
			return fmt.Errorf("failed to send credentials: %w", err)
		}

		reader := bufio.NewReader(conn)
		for {
			reply, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			switch strings.TrimSpace(reply) {
			case "AUTH_REQUIRED":
				continue
			case "AUTH_OK":
			default:
				return fmt.Errorf("authentication failed: %s", strings.TrimSpace(reply))
			}
			break
		}
	}

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to send record: %w", err)
	}
	return nil
}
