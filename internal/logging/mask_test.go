package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskText_WhenKeyEqualsValue_ShouldMaskValueOnly(t *testing.T) {
	got := MaskText("connecting with password=hunter2 to host")
	if strings.Contains(got, "hunter2") {
		t.Errorf("value leaked: %q", got)
	}
	if !strings.Contains(got, "password="+Mask) {
		t.Errorf("expected masked value, got %q", got)
	}
	if !strings.Contains(got, "to host") {
		t.Errorf("surrounding text altered: %q", got)
	}
}

func TestMaskText_WhenJSONStyleValue_ShouldKeepQuotes(t *testing.T) {
	got := MaskText(`{"user": "alice", "password": "hunter2"}`)
	if strings.Contains(got, "hunter2") {
		t.Errorf("value leaked: %q", got)
	}
	if !strings.Contains(got, `"password": "`+Mask+`"`) {
		t.Errorf("expected quoted mask, got %q", got)
	}
	if !strings.Contains(got, `"alice"`) {
		t.Errorf("non-sensitive value altered: %q", got)
	}
}

func TestMaskText_WhenColonSeparated_ShouldMask(t *testing.T) {
	got := MaskText("api_key: abc123 token: xyz")
	if strings.Contains(got, "abc123") || strings.Contains(got, "xyz") {
		t.Errorf("value leaked: %q", got)
	}
}

func TestMaskText_WhenCaseDiffers_ShouldStillMask(t *testing.T) {
	got := MaskText("PASSWORD=topsecret")
	if strings.Contains(got, "topsecret") {
		t.Errorf("value leaked: %q", got)
	}
}

func TestMaskText_WhenNoSensitiveContent_ShouldReturnUnchanged(t *testing.T) {
	in := "connected to sap01:00 client=100 user=CHECKER"
	if got := MaskText(in); got != in {
		t.Errorf("text without secrets was altered: %q", got)
	}
}

func TestMaskHandler_WhenAttrKeyIsSensitive_ShouldReplaceValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("logging on", "user", "alice", "password", "hunter2")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked: %q", out)
	}
	if !strings.Contains(out, "password="+Mask) {
		t.Errorf("expected masked attr, got %q", out)
	}
	if !strings.Contains(out, "user=alice") {
		t.Errorf("non-sensitive attr altered: %q", out)
	}
}

func TestMaskHandler_WhenKeyContainsSensitiveWord_ShouldReplaceValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("auth", "sap_password", "hunter2", "refresh_token", "tok123")

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "tok123") {
		t.Errorf("sensitive attr leaked: %q", out)
	}
}

func TestMaskHandler_WhenMessageContainsSecret_ShouldScrubMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, nil)))

	logger.Warn("logon rejected for passwd=oldpw")

	if strings.Contains(buf.String(), "oldpw") {
		t.Errorf("message secret leaked: %q", buf.String())
	}
}

func TestMaskHandler_WithJSONHandler_ShouldMaskIdentically(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("logon", "password", "hunter2")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["password"] != Mask {
		t.Errorf("expected masked password in JSON output, got %v", record["password"])
	}
}

func TestMaskHandler_ShouldNotChangeRecordLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})))

	logger.Error("failure with token=abc")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected ERROR level preserved, got %q", buf.String())
	}

	buf.Reset()
	logger.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("expected info record filtered by inner level, got %q", buf.String())
	}
}

func TestMaskHandler_WithAttrs_ShouldMaskPreboundAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, nil)))
	logger := base.With("api_key", "abc123")

	logger.Info("call")

	out := buf.String()
	if strings.Contains(out, "abc123") {
		t.Errorf("prebound attr leaked: %q", out)
	}
}

func TestMaskHandler_WithGroup_ShouldMaskGroupedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskHandler(slog.NewTextHandler(&buf, nil))).WithGroup("rfc")

	logger.Info("connect", "password", "hunter2")

	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("grouped attr leaked: %q", buf.String())
	}
}

func TestMaskHandler_Enabled_ShouldDelegateToInner(t *testing.T) {
	h := NewMaskHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info disabled when inner level is warn")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error enabled")
	}
}
