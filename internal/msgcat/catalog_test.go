package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedMessages(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Token("YOU_WIN"); got != "You win!" {
		t.Fatalf("YOU_WIN = %q", got)
	}
	if got := c.Token("SOMETHING_ELSE"); got != "SOMETHING_ELSE" {
		t.Fatalf("unknown token = %q", got)
	}
	got, err := c.Render("client.welcome", map[string]string{"Color": "BLACK"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(got, "You play BLACK.") {
		t.Fatalf("welcome = %q", got)
	}
}

func TestMissingFieldFallsBack(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("client.connected", map[string]string{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.Text("client.connected", map[string]string{}, "fallback"); got != "fallback" {
		t.Fatalf("Text = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.Token("DRAW"); got != "DRAW" {
		t.Fatalf("nil catalog = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("server:\n  you_win: \"Victory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Token("YOU_WIN"); got != "Victory" {
		t.Fatalf("override = %q", got)
	}
	if got := c.Token("DRAW"); got != "The game is a draw." {
		t.Fatalf("default kept = %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("server:\n  you_win: \"Again\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
