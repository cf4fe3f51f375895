package cli

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := NewCommand("contactmerge")
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	out, err := execute(t, "extract", "Contactformulier KPN voor het IP adres [203.0.113.5]")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if out != "203.0.113.5\n" {
		t.Errorf("got %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--config", "/nonexistent/contactmerge.yaml")
	if err != nil {
		t.Fatalf("version must not load the config: %v", err)
	}
	if !strings.Contains(out, "Contactmerge") {
		t.Errorf("got %q", out)
	}
}

func TestRunRequiresAddress(t *testing.T) {
	_, err := execute(t, "run", "-u", "agent")
	if err == nil || !strings.Contains(err.Error(), "address") {
		t.Errorf("expected missing address error, got %v", err)
	}
}

func TestInvalidWorkflowFlag(t *testing.T) {
	_, err := execute(t, "extract", "--dossier-queue", "0", "10.0.0.1")
	if err == nil || !strings.Contains(err.Error(), "invalid dossier queue") {
		t.Errorf("expected workflow error, got %v", err)
	}
}

func TestVerboseFlagSetsLogLevel(t *testing.T) {
	if _, err := execute(t, "extract", "-v", "10.0.0.1"); err != nil {
		t.Fatalf("error: %v", err)
	}
	if _, err := execute(t, "extract", "--log-level", "0", "10.0.0.1"); err != nil {
		t.Fatalf("error: %v", err)
	}
}
