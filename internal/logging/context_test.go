// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8 chars, got %d (%s)", len(a), a)
	}
	if a == b {
		t.Error("expected distinct ids")
	}
}

func TestCorrelationIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	ctx = ContextWithCorrelationID(ctx, "cycle123")
	if got := CorrelationIDFromContext(ctx); got != "cycle123" {
		t.Errorf("expected cycle123, got %q", got)
	}
	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())); len(got) != 8 {
		t.Errorf("expected generated id, got %q", got)
	}
}

func TestCtx_AddsCorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abcd1234")

	Ctx(ctx).Info().Msg("cycle complete")

	if !strings.Contains(buf.String(), `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation id in output, got %s", buf.String())
	}
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	t.Parallel()

	l := LoggerFromContext(context.Background())
	if l.GetLevel() != Logger().GetLevel() {
		t.Error("expected global logger fallback")
	}
}
