package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/okian/deathboard/internal/domain/notify"
	"github.com/okian/deathboard/internal/domain/orientation"
)

const clientTimeout = 2 * time.Minute

// commandReply is the subset of an API reply the CLI prints.
type commandReply struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Messages []notify.Message `json:"messages"`
}

// clientFlags registers the flags shared by every client command.
func clientFlags(fs *flag.FlagSet) (configPath, url *string) {
	configPath = fs.String("config", "", "path to YAML config file (overrides DEATHBOARD_CONFIG)")
	url = fs.String("url", "", "base URL of the deathboard daemon (default: derived from addr)")
	return configPath, url
}

// resolveURL returns url, or one derived from the configured listen address.
func resolveURL(ctx context.Context, configPath, url string) (string, error) {
	if url != "" {
		return strings.TrimRight(url, "/"), nil
	}
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return "", err
	}
	return baseURL(cfg.Addr), nil
}

// baseURL turns a listen address into a loopback URL.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func cmdStart(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, url := clientFlags(fs)
	x := fs.Float64("x", 0, "x coordinate of the stack")
	y := fs.Float64("y", 0, "y coordinate of the stack")
	z := fs.Float64("z", 0, "z coordinate of the stack")
	yaw := fs.Float64("yaw", 0, "yaw of the invoker's view, degrees")
	pitch := fs.Float64("pitch", 0, "pitch of the invoker's view, degrees")
	facing := fs.String("facing", "", "face the stack north|south|east|west|up|down instead of using --yaw/--pitch")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	for _, name := range []string{"x", "y", "z"} {
		if !fs.Changed(name) {
			_, _ = fmt.Fprintf(stderr, "Error: --%s is required\n", name)
			return 2
		}
	}

	if fs.Changed("facing") {
		o, err := orientation.Parse(*facing)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		*yaw, *pitch = o.Look()
	}

	body := map[string]float64{"x": *x, "y": *y, "z": *z, "yaw": *yaw, "pitch": *pitch}
	return command(stdout, stderr, *configPath, *url, http.MethodPost, "/holograms/start", body)
}

func cmdDelete(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, url := clientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return command(stdout, stderr, *configPath, *url, http.MethodPost, "/holograms/delete", nil)
}

func cmdReport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, url := clientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return command(stdout, stderr, *configPath, *url, http.MethodPost, "/report", nil)
}

// command calls the daemon and prints its operator messages.
func command(stdout, stderr io.Writer, configPath, url, method, path string, body any) int {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	base, err := resolveURL(ctx, configPath, url)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	reply, status, err := call(ctx, method, base+path, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	out := notify.NewWriterSink(stdout)
	for _, m := range reply.Messages {
		out.Send(ctx, m)
	}
	if status >= http.StatusBadRequest {
		if len(reply.Messages) == 0 {
			_, _ = fmt.Fprintf(stderr, "Error: %s\n", reply.Message)
		}
		return 1
	}
	return 0
}

func call(ctx context.Context, method, url string, body any) (commandReply, int, error) {
	var reply commandReply

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return reply, 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return reply, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return reply, 0, fmt.Errorf("contact daemon: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return reply, resp.StatusCode, fmt.Errorf("decode reply (%s): %w", resp.Status, err)
	}
	return reply, resp.StatusCode, nil
}
