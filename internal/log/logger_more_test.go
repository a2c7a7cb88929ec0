/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{level: slog.LevelWarn, w: &buf}
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true), slog.String("title", "two words"))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "boom", "k=v", "grp.n=42", "grp.pi=3.14", "grp.ok=true", `grp.title="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "grp.k=v") {
		t.Fatalf("attrs added before the group must not carry its prefix: %q", out)
	}
}

func TestFanoutRespectsLevels(t *testing.T) {
	var quiet, loud bytes.Buffer
	h := fanout([]slog.Handler{
		&lineHandler{level: slog.LevelError, w: &quiet},
		&lineHandler{level: slog.LevelDebug, w: &loud},
	})
	slog.New(h).Info("hello")
	if quiet.Len() != 0 {
		t.Fatalf("error-level handler should skip info: %q", quiet.String())
	}
	if !strings.Contains(loud.String(), "hello") {
		t.Fatalf("debug-level handler missed record: %q", loud.String())
	}
}
