/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	events  []map[string]any
	crashes [][]byte
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		r.mu.Lock()
		r.events = append(r.events, m)
		r.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.crashes = append(r.crashes, b)
		r.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSendsEventsAndCrashes(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()

	c.Event(EventNodeCreated, map[string]any{"type": "hotel"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	rec.mu.Lock()
	if len(rec.events) != 1 {
		rec.mu.Unlock()
		t.Fatalf("expected one event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	rec.mu.Unlock()
	if ev["name"] != EventNodeCreated || ev["type"] != "hotel" {
		t.Fatalf("unexpected payload: %v", ev)
	}
	if _, ok := ev["ts"].(string); !ok {
		t.Fatal("missing ts")
	}

	c.UploadCrash([]byte("panic: boom"))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.crashes) != 1 || string(rec.crashes[0]) != "panic: boom" {
		t.Fatalf("crash upload = %q", rec.crashes)
	}
}

func TestClientDisabled(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)

	off := New(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	defer off.Close()
	if off.Enabled() {
		t.Fatal("opt-out client reports enabled")
	}
	off.Event(EventDragFinished, nil)
	off.UploadCrash([]byte("x"))

	noURL := New(Config{OptIn: true})
	defer noURL.Close()
	if noURL.Enabled() {
		t.Fatal("client without endpoint reports enabled")
	}

	on := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	defer on.Close()
	on.Event("", nil)

	off.Flush(context.Background())
	on.Flush(context.Background())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 0 || len(rec.crashes) != 0 {
		t.Fatalf("disabled clients sent %d events, %d crashes", len(rec.events), len(rec.crashes))
	}
}

func TestSendFailuresAreSwallowed(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", CrashURL: "http://127.0.0.1:1/crash", Timeout: 50 * time.Millisecond, DebugLogging: true})
	c.Event("err", map[string]any{"a": 1})
	c.Flush(context.Background())
	c.UploadCrash([]byte("oops"))
	c.Close()
	c.Close()
	c.Event("after-close", nil)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TC_TELEMETRY_OPT_IN", "yes")
	t.Setenv("TC_TELEMETRY_URL", " http://example.invalid/e ")
	t.Setenv("TC_TELEMETRY_TIMEOUT_MS", "250")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://example.invalid/e" || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("FromEnv = %+v", cfg)
	}
	t.Setenv("TC_TELEMETRY_TIMEOUT_MS", "junk")
	if FromEnv().Timeout != defaultTimeout {
		t.Fatal("invalid timeout not ignored")
	}
}

func TestNopEmitter(t *testing.T) {
	var e Emitter = Nop{}
	e.Event(EventExported, nil)
}
