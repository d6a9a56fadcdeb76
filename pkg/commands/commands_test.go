package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"tableflip.dev/notes/pkg/config"
	"tableflip.dev/notes/pkg/runner/get"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"NOTES_GATEWAY_URL", "NOTES_GATEWAY_KEY", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_ANON_KEY",
	} {
		t.Setenv(env, "")
	}
	t.Setenv("NOTES_CONFIG_PATH", t.TempDir())
	t.Setenv("NOTES_SESSION_PATH", t.TempDir())
	output.JSON = false
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	cmd := New()
	want := []string{"ui", "list", "show", "login", "signup", "logout", "whoami", "mcp", "version", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %q subcommand", name)
		}
	}
}

func TestListNeedsGatewaySettings(t *testing.T) {
	isolate(t)
	_, err := execute(t, "list")
	if !errors.Is(err, config.ErrMissingSetting) {
		t.Fatalf("expected missing setting error, got %v", err)
	}
}

func TestFlagsConfigureGateway(t *testing.T) {
	isolate(t)
	// No session is stored, so nothing is sent to the endpoint.
	out, err := execute(t, "whoami", "--gateway-url", "http://127.0.0.1:1", "--gateway-key", "anon")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "Not signed in.") {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = execute(t, "list", "--gateway-url", "http://127.0.0.1:1", "--gateway-key", "anon")
	if !errors.Is(err, get.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}
