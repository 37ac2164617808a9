package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"slotwatch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slotwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestValidateConfigOK(t *testing.T) {
	path := writeConfig(t, `
apps:
  - beta1234
check_interval: 120s
notify:
  discord_webhook_url: https://discord.com/api/webhooks/1/abc
`)

	var out bytes.Buffer
	if err := ValidateConfig(path, &out); err != nil {
		t.Fatalf("ValidateConfig() = %v, want nil", err)
	}
	s := out.String()
	if !strings.Contains(s, "config ok: 1 app(s)") {
		t.Errorf("missing summary line in output:\n%s", s)
	}
	if !strings.Contains(s, "watching https://testflight.apple.com/join/beta1234") {
		t.Errorf("missing watch line in output:\n%s", s)
	}
}

func TestValidateConfigRejectsEmptyApps(t *testing.T) {
	path := writeConfig(t, `apps: []`)

	var out bytes.Buffer
	if err := ValidateConfig(path, &out); err == nil {
		t.Fatal("ValidateConfig() = nil, want error for empty app list")
	}
}

func TestValidateConfigNotesMissingChannels(t *testing.T) {
	path := writeConfig(t, `
apps:
  - beta1234
`)

	var out bytes.Buffer
	if err := ValidateConfig(path, &out); err != nil {
		t.Fatalf("ValidateConfig() = %v, want nil", err)
	}
	if !strings.Contains(out.String(), "no notification channels configured") {
		t.Errorf("missing channel note in output:\n%s", out.String())
	}
}

func TestCheckOnce(t *testing.T) {
	// CheckOnce builds its own client on the default transport.
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://testflight.apple.com/join/open1234",
		httpmock.NewStringResponder(200, "<html><body>Join the beta</body></html>"))
	httpmock.RegisterResponder(http.MethodGet, "https://testflight.apple.com/join/full5678",
		httpmock.NewStringResponder(200, "<html><body>This beta is full.</body></html>"))

	path := writeConfig(t, `
apps:
  - open1234
  - full5678
`)

	var out bytes.Buffer
	if err := CheckOnce(context.Background(), path, &out); err != nil {
		t.Fatalf("CheckOnce() = %v, want nil", err)
	}
	s := out.String()
	if !strings.Contains(s, "open1234: Available") {
		t.Errorf("open app not reported available:\n%s", s)
	}
	if !strings.Contains(s, "full5678: Not Available") {
		t.Errorf("full app not reported unavailable:\n%s", s)
	}
}

// Validation warnings must reach the console during daemon startup, before
// the log service exists.
func TestNewAppPrintsStartupWarnings(t *testing.T) {
	path := writeConfig(t, `
apps:
  - beta1234
check_interval: 10s
`)

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	a, appErr := NewApp(path)

	os.Stdout = orig
	_ = w.Close()
	out, _ := io.ReadAll(r)
	_ = r.Close()

	if appErr != nil {
		t.Fatalf("NewApp: %v", appErr)
	}
	defer a.logs.Close()

	s := string(out)
	if !strings.Contains(s, "below 60s") {
		t.Fatalf("startup output missing interval warning:\n%s", s)
	}
	if !strings.Contains(s, "no notification channels configured") {
		t.Fatalf("startup output missing channel warning:\n%s", s)
	}
}

func TestChannelsChanged(t *testing.T) {
	t.Parallel()

	base := config.NotifyConfig{
		DiscordWebhookURL: "https://discord.com/api/webhooks/1/abc",
		Telegram:          &config.TelegramConfig{Token: "tok", ChatID: 7},
	}

	if channelsChanged(base, base) {
		t.Error("identical configs reported as changed")
	}

	next := base
	next.DiscordWebhookURL = "https://discord.com/api/webhooks/2/xyz"
	if !channelsChanged(base, next) {
		t.Error("webhook change not detected")
	}

	next = base
	next.Telegram = &config.TelegramConfig{Token: "tok", ChatID: 8}
	if !channelsChanged(base, next) {
		t.Error("telegram chat change not detected")
	}

	next = base
	next.Telegram = nil
	if !channelsChanged(base, next) {
		t.Error("channel removal not detected")
	}

	next = base
	next.Email = &config.EmailConfig{SMTPHost: "mail.example.com", Recipients: []string{"a@example.com"}}
	if !channelsChanged(base, next) {
		t.Error("channel addition not detected")
	}
}
