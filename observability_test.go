package tubeAuth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"

func waitEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}

func TestAuditEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(64)
	env := newTestEnv(t, cfg, func(b *Builder) { b.WithAuditSink(sink) })
	u := env.register(t, "alice")

	ctx := WithUserAgent(WithClientIP(context.Background(), "203.0.113.7"), firefoxUA)
	first, err := env.engine.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	ev := waitEvent(t, sink, "login_success")
	if ev.UserID != u.ID || ev.IP != "203.0.113.7" || !ev.Success {
		t.Fatalf("unexpected login event %+v", ev)
	}
	if !strings.Contains(ev.Device, "Firefox") {
		t.Fatalf("expected parsed device, got %q", ev.Device)
	}

	if _, err := env.engine.Login(ctx, "alice", "wrong-password"); err == nil {
		t.Fatal("expected login failure")
	}
	ev = waitEvent(t, sink, "login_failure")
	if ev.Success || ev.Error != "invalid_credentials" || ev.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("unexpected failure event %+v", ev)
	}

	if _, err := env.engine.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	waitEvent(t, sink, "refresh_success")

	if _, err := env.engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected reuse, got %v", err)
	}
	ev = waitEvent(t, sink, "refresh_reuse_detected")
	if ev.Error != "token_reused" || ev.Metadata["revoked"] != "true" {
		t.Fatalf("unexpected reuse event %+v", ev)
	}

	if err := env.engine.Logout(ctx, u.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	waitEvent(t, sink, "logout")
}

func TestAuditDisabledDropsNothing(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t, "bob")

	if _, err := env.engine.Login(context.Background(), "bob", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	if env.engine.AuditDropped() != 0 {
		t.Fatal("disabled audit must not report drops")
	}
}

func TestReuseIsLoggedAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	env := newTestEnv(t, testConfig(), func(b *Builder) { b.WithLogger(zap.New(core)) })
	u := env.register(t, "carol")

	pair, err := env.engine.Login(context.Background(), "carol", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.engine.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := env.engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected reuse, got %v", err)
	}

	reuse := logs.FilterMessage("refresh token reuse detected")
	if reuse.Len() != 1 {
		t.Fatalf("expected one reuse log, got %d", reuse.Len())
	}
	entry := reuse.All()[0]
	if entry.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", entry.Level)
	}
	if entry.LoggerName != "tubeauth" {
		t.Fatalf("unexpected logger name %q", entry.LoggerName)
	}
	if got := entry.ContextMap()["user_id"]; got != u.ID {
		t.Fatalf("unexpected user_id field %v", got)
	}

	if _, err := env.engine.Login(context.Background(), "carol", "wrong-password"); err == nil {
		t.Fatal("expected login failure")
	}
	rejected := logs.FilterMessage("operation rejected").FilterField(zap.String("op", "login"))
	if rejected.Len() != 1 || rejected.All()[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected one debug rejection log, got %d", rejected.Len())
	}
	for _, e := range logs.All() {
		if strings.Contains(e.Message, testPassword) {
			t.Fatal("password leaked into logs")
		}
		for _, f := range e.Context {
			if strings.Contains(f.String, pair.RefreshToken) {
				t.Fatal("refresh token leaked into logs")
			}
		}
	}
}

func TestOperationsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	env := newTestEnv(t, testConfig(), func(b *Builder) { b.WithTracerProvider(tp) })
	env.register(t, "dave")

	pair, err := env.engine.Login(context.Background(), "dave", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.engine.Authorize(context.Background(), "garbage"); err == nil {
		t.Fatal("expected authorize failure")
	}
	if _, err := env.engine.Authorize(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	for _, name := range []string{"tubeauth.Register", "tubeauth.Login", "tubeauth.Authorize"} {
		if len(byName[name]) == 0 {
			t.Fatalf("missing span %s", name)
		}
	}
	if got := byName["tubeauth.Login"][0].Status().Code; got == codes.Error {
		t.Fatal("successful login span must not be marked as error")
	}

	failed := 0
	for _, s := range byName["tubeauth.Authorize"] {
		if s.Status().Code == codes.Error {
			failed++
			if s.Status().Description != "token_malformed" {
				t.Fatalf("unexpected status description %q", s.Status().Description)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failed authorize span, got %d", failed)
	}
}

func TestMetricsDisabled(t *testing.T) {
	env := newTestEnv(t, testConfig(), func(b *Builder) { b.WithMetricsEnabled(false) })
	env.register(t, "erin")

	if _, err := env.engine.Login(context.Background(), "erin", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	snap := env.engine.MetricsSnapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestAuthorizeLatencyHistogram(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t, "fay")

	pair, err := env.engine.Login(context.Background(), "fay", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := env.engine.Authorize(context.Background(), pair.AccessToken); err != nil {
			t.Fatalf("authorize: %v", err)
		}
	}

	snap := env.engine.MetricsSnapshot()
	var total uint64
	for _, c := range snap.Histograms[MetricAuthorizeLatency] {
		total += c
	}
	if total != 5 {
		t.Fatalf("expected 5 latency observations, got %d", total)
	}
	if snap.Counters[MetricAuthorizeSuccess] != 5 {
		t.Fatalf("expected 5 authorize successes, got %d", snap.Counters[MetricAuthorizeSuccess])
	}
}
