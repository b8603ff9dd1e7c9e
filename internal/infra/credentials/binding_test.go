package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleBinding = `
groups:
  100: [author-a, author-b, author-a]
  200: [author-c]
  300: []
accounts:
  - user_id: author-a
    token: " tok-a "
  - user_id: author-b
    token: tok-b
`

func TestParseKeepsDeclaredOrder(t *testing.T) {
	b, err := Parse([]byte(sampleBinding))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	authors := b.Authors(100)
	if len(authors) != 2 || authors[0] != "author-a" || authors[1] != "author-b" {
		t.Fatalf("Authors(100) = %#v", authors)
	}
	if got := b.Authors(300); len(got) != 0 {
		t.Fatalf("Authors(300) = %#v, want empty", got)
	}
	if got := b.Authors(999); len(got) != 0 {
		t.Fatalf("Authors(999) = %#v, want empty", got)
	}
	groups := b.Groups()
	if len(groups) != 2 || groups[0] != 100 || groups[1] != 200 {
		t.Fatalf("Groups() = %#v", groups)
	}
}

func TestParseTrimsTokens(t *testing.T) {
	b, err := Parse([]byte(sampleBinding))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	accounts := b.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].UserID != "author-a" || accounts[0].Token != "tok-a" {
		t.Fatalf("accounts[0] = %#v", accounts[0])
	}
	missing := b.MissingAccounts()
	if len(missing) != 1 || missing[0] != "author-c" {
		t.Fatalf("MissingAccounts() = %#v", missing)
	}
}

func TestAuthorsReturnsCopy(t *testing.T) {
	b, err := Parse([]byte(sampleBinding))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	authors := b.Authors(100)
	authors[0] = "mutated"
	if b.Authors(100)[0] != "author-a" {
		t.Fatal("Authors leaked internal slice")
	}
}

func TestParseRejectsDuplicateAccounts(t *testing.T) {
	raw := `
accounts:
  - user_id: a
    token: x
  - user_id: a
    token: y
`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected duplicate account error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	if err := os.WriteFile(path, []byte(sampleBinding), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(b.Authors(200)) != 1 {
		t.Fatalf("Authors(200) = %#v", b.Authors(200))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
