package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"inkognito/pkg/inkclient"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  signup     Create an account and send a verification code")
	fmt.Fprintln(os.Stderr, "  verify     Confirm the emailed verification code")
	fmt.Fprintln(os.Stderr, "  signin     Sign in and print a session token")
	fmt.Fprintln(os.Stderr, "  send       Send an anonymous message to a user")
	fmt.Fprintln(os.Stderr, "  inbox      List received messages")
	fmt.Fprintln(os.Stderr, "  delete     Delete a received message")
	fmt.Fprintln(os.Stderr, "  accept     Show or change whether messages are accepted")
	os.Exit(2)
}

func run(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "signup":
		return runSignup(ctx, args, out)
	case "verify":
		return runVerify(ctx, args, out)
	case "signin":
		return runSignin(ctx, args, out)
	case "send":
		return runSend(ctx, args, out)
	case "inbox":
		return runInbox(ctx, args, out)
	case "delete":
		return runDelete(ctx, args, out)
	case "accept":
		return runAccept(ctx, args, out)
	default:
		return errUsage
	}
}

type commonOpts struct {
	baseURL string
	token   string
	timeout time.Duration
}

func newFlagSet(name string, o *commonOpts, withToken bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.baseURL, "base-url", getenv("INKCTL_BASE_URL", "http://localhost:8080"), "Inkognito base URL")
	fs.DurationVar(&o.timeout, "timeout", 15*time.Second, "request timeout")
	if withToken {
		fs.StringVar(&o.token, "token", os.Getenv("INKCTL_TOKEN"), "session token (defaults to $INKCTL_TOKEN)")
	}
	return fs
}

func (o commonOpts) client() *inkclient.Client {
	return inkclient.New(o.baseURL, inkclient.WithToken(strings.TrimSpace(o.token)))
}

func (o commonOpts) requireToken() error {
	if strings.TrimSpace(o.token) == "" {
		return fmt.Errorf("a session token is required (use --token or INKCTL_TOKEN)")
	}
	return nil
}

func runSignup(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	var username, email, password string
	fs := newFlagSet("signup", &o, false)
	fs.StringVarP(&username, "username", "u", "", "username")
	fs.StringVarP(&email, "email", "e", "", "email address")
	fs.StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if username == "" || email == "" {
		return fmt.Errorf("--username and --email are required")
	}
	password, err := promptIfEmpty(password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	msg, err := o.client().Signup(ctx, username, email, password)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"message": msg})
}

func runVerify(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	var username, code string
	fs := newFlagSet("verify", &o, false)
	fs.StringVarP(&username, "username", "u", "", "username")
	fs.StringVarP(&code, "code", "c", "", "6-digit verification code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if username == "" || code == "" {
		return fmt.Errorf("--username and --code are required")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	msg, err := o.client().Verify(ctx, username, code)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"message": msg})
}

func runSignin(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	var identifier, password string
	fs := newFlagSet("signin", &o, false)
	fs.StringVarP(&identifier, "identifier", "i", "", "email or username")
	fs.StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if identifier == "" {
		return fmt.Errorf("--identifier is required")
	}
	password, err := promptIfEmpty(password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	res, err := o.client().Signin(ctx, identifier, password)
	if err != nil {
		return err
	}
	return printJSON(out, res)
}

func runSend(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	var username string
	fs := newFlagSet("send", &o, false)
	fs.StringVarP(&username, "to", "t", "", "recipient username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	content := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if username == "" || content == "" {
		return fmt.Errorf("usage: inkctl send --to <username> <message>")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	msg, err := o.client().SendMessage(ctx, username, content)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"message": msg})
}

func runInbox(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	fs := newFlagSet("inbox", &o, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := o.requireToken(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	msgs, err := o.client().Inbox(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, msgs)
}

func runDelete(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	fs := newFlagSet("delete", &o, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: inkctl delete <message-id>")
	}
	if err := o.requireToken(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.client().DeleteMessage(ctx, fs.Arg(0)); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"deleted": fs.Arg(0)})
}

// runAccept prints the current setting, or changes it with --on/--off.
func runAccept(ctx context.Context, args []string, out io.Writer) error {
	var o commonOpts
	var on, off bool
	fs := newFlagSet("accept", &o, true)
	fs.BoolVar(&on, "on", false, "start accepting messages")
	fs.BoolVar(&off, "off", false, "stop accepting messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if on && off {
		return fmt.Errorf("--on and --off are mutually exclusive")
	}
	if err := o.requireToken(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	c := o.client()
	if on || off {
		if err := c.SetAcceptance(ctx, on); err != nil {
			return err
		}
	}
	accepting, err := c.Acceptance(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]bool{"isAcceptingMessage": accepting})
}

func promptIfEmpty(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
