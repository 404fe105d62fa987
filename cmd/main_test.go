package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/deathboard/internal/adapters/display"
	"github.com/okian/deathboard/internal/adapters/http/api"
	"github.com/okian/deathboard/internal/config"
	"github.com/okian/deathboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given the command line", t, func() {
		var stdout, stderr bytes.Buffer

		convey.Convey("When asking for the version", func() {
			code := run([]string{"version"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 0)
			convey.So(stdout.String(), convey.ShouldEqual, "deathboard dev\n")
		})

		convey.Convey("When no command is given", func() {
			code := run(nil, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "Usage: deathboard")
		})

		convey.Convey("When the command is unknown", func() {
			code := run([]string{"explode"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "Unknown command: explode")
		})

		convey.Convey("When start lacks a coordinate", func() {
			code := run([]string{"start", "--url", "http://127.0.0.1:1", "--x", "1", "--y", "2"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 2)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "--z is required")
		})

		convey.Convey("When start names an unknown facing", func() {
			code := run([]string{"start", "--url", "http://127.0.0.1:1", "--x", "1", "--y", "2", "--z", "3", "--facing", "sideways"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 2)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "unknown orientation")
		})
	})
}

func TestBaseURL(t *testing.T) {
	convey.Convey("Given listen addresses", t, func() {
		convey.So(baseURL(":9180"), convey.ShouldEqual, "http://127.0.0.1:9180")
		convey.So(baseURL("0.0.0.0:80"), convey.ShouldEqual, "http://127.0.0.1:80")
		convey.So(baseURL("10.0.0.5:9180"), convey.ShouldEqual, "http://10.0.0.5:9180")
		convey.So(baseURL("[::]:9180"), convey.ShouldEqual, "http://127.0.0.1:9180")
	})
}

func TestClientCommands(t *testing.T) {
	convey.Convey("Given a daemon backed by a temporary world", t, func() {
		root := t.TempDir()
		stats := filepath.Join(root, "world", "stats")
		convey.So(os.MkdirAll(stats, 0o700), convey.ShouldBeNil)
		id := "5b9e2d7c-8a41-4c0f-b3e6-1d2f4a6c8e90"
		convey.So(os.WriteFile(filepath.Join(stats, id+".json"),
			[]byte(`{"stats":{"minecraft:custom":{"minecraft:deaths":9}}}`), 0o600), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(root, "usercache.json"),
			[]byte(`[{"name":"Bob","uuid":"`+id+`"}]`), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.ServerDir = root
		cfg.Backend = config.BackendMemory

		svc := newService(cfg, logger.Get())
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		var stdout, stderr bytes.Buffer

		convey.Convey("When running start", func() {
			code := run([]string{"start", "--url", srv.URL, "--x", "1", "--y", "64", "--z", "2", "--yaw", "90"}, &stdout, &stderr)

			convey.Convey("Then the daemon's feedback is printed", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Holograms initialized facing east.")
			})
		})

		convey.Convey("When running start with an explicit facing", func() {
			code := run([]string{"start", "--url", srv.URL, "--x", "1", "--y", "64", "--z", "2", "--facing", "North"}, &stdout, &stderr)

			convey.Convey("Then the stack faces that way", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Holograms initialized facing north.")
			})
		})

		convey.Convey("When running report", func() {
			code := run([]string{"report", "--url", srv.URL}, &stdout, &stderr)

			convey.Convey("Then the ranking is printed", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldEqual, "Top 3 players with most deaths:\n1. Bob - 9 deaths\n")
			})
		})

		convey.Convey("When running delete", func() {
			code := run([]string{"delete", "--url", srv.URL}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 0)
			convey.So(stdout.String(), convey.ShouldEqual, "All holograms were deleted.\n")
		})

		convey.Convey("When the daemon reports a failure", func() {
			convey.So(os.RemoveAll(stats), convey.ShouldBeNil)
			code := run([]string{"report", "--url", srv.URL}, &stdout, &stderr)

			convey.Convey("Then the short message is printed and the exit code is non-zero", func() {
				convey.So(code, convey.ShouldEqual, 1)
				convey.So(stdout.String(), convey.ShouldEqual, "error: statistics directory unavailable\n")
			})
		})
	})
}

func TestNewBackend(t *testing.T) {
	convey.Convey("Given a memory backend config", t, func() {
		cfg := config.New()
		cfg.Backend = config.BackendMemory
		b, f := newBackend(cfg)
		_, ok := b.(*display.Memory)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(f, convey.ShouldBeNil)
	})

	convey.Convey("Given an rcon backend config", t, func() {
		cfg := config.New()
		b, f := newBackend(cfg)
		convey.So(b, convey.ShouldNotBeNil)
		convey.So(f, convey.ShouldNotBeNil)
	})
}

func TestCall(t *testing.T) {
	convey.Convey("Given a daemon that answers with JSON", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"code": "busy", "message": "a refresh is already running"})
		}))
		defer srv.Close()

		reply, status, err := call(context.Background(), http.MethodPost, srv.URL+"/report", nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(status, convey.ShouldEqual, http.StatusConflict)
		convey.So(reply.Message, convey.ShouldEqual, "a refresh is already running")
	})
}
