/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage events and crash reports.
//
// Nothing is sent unless SKAP_TELEMETRY_OPT_IN is set and an endpoint is configured:
//   - SKAP_TELEMETRY_OPT_IN=1|true|yes|on
//   - SKAP_TELEMETRY_URL=<url events are POSTed to as JSON>
//   - SKAP_CRASH_UPLOAD_URL=<url crash reports are POSTed to as text>
//   - SKAP_TELEMETRY_TIMEOUT_MS=<request timeout, default 1500>
//   - SKAP_TELEMETRY_DEBUG=<any> logs send attempts
//
// Events carry counts and durations only, never file names or level content.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"skapeditor/internal/domain"
	applog "skapeditor/internal/log"
	"skapeditor/internal/version"
)

const (
	EnvOptIn     = "SKAP_TELEMETRY_OPT_IN"
	EnvEventsURL = "SKAP_TELEMETRY_URL"
	EnvCrashURL  = "SKAP_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "SKAP_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "SKAP_TELEMETRY_DEBUG"
)

type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
	Debug     bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   1500 * time.Millisecond,
		Debug:     os.Getenv(EnvDebug) != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMS))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Event is one usage record as sent on the wire.
type Event struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from one background goroutine. A full queue drops
// events; send failures are ignored.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan Event
	pending sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
}

func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan Event, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, configured from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process-wide client and returns the previous one.
func SetDefault(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Send queues a named event. It never blocks.
func (c *Client) Send(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := Event{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Props:   props,
	}
	c.pending.Add(1)
	select {
	case c.q <- ev:
	default:
		c.pending.Done()
	}
}

// Command records one CLI invocation.
func (c *Client) Command(cmd string, exit int, took time.Duration) {
	c.Send("command", map[string]any{"cmd": cmd, "exit": exit, "ms": took.Milliseconds()})
}

// LevelStats records the shape of an opened level: area count and objects per kind.
func (c *Client) LevelStats(lvl domain.Level) {
	if !c.Enabled() {
		return
	}
	kinds := map[string]int{}
	total := 0
	for _, a := range lvl.Areas {
		for k, objs := range a.Objects {
			kinds[k] += len(objs)
			total += len(objs)
		}
	}
	c.Send("level", map[string]any{"areas": len(lvl.Areas), "objects": total, "kinds": kinds})
}

// Flush waits until queued events are sent, ctx ends or 500ms pass.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
	}
}

func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.q:
			buf, _ := json.Marshal(ev)
			c.post(c.cfg.EventsURL, "application/json", buf)
			c.pending.Done()
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.Debug {
			c.log.Debug("telemetry post failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.Debug {
		c.log.Debug("telemetry posted", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report and waits for the request to finish, bounded by the
// client timeout. The process is usually about to exit.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

func Command(cmd string, exit int, took time.Duration) { Default().Command(cmd, exit, took) }
func LevelStats(lvl domain.Level)                      { Default().LevelStats(lvl) }
func UploadCrash(report []byte)                        { Default().UploadCrash(report) }
func Flush(ctx context.Context)                        { Default().Flush(ctx) }
