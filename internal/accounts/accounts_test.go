package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `alice|secret1
bob | hunter2

malformed-line
carol|pass|with|pipes
`
	accounts, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(accounts) != 3 {
		t.Fatalf("len = %d, want 3", len(accounts))
	}
	if accounts[0].Username != "alice" || accounts[0].Password != "secret1" {
		t.Errorf("accounts[0] = %+v", accounts[0])
	}
	if accounts[1].Username != "bob" || accounts[1].Password != "hunter2" {
		t.Errorf("accounts[1] = %+v, want trimmed fields", accounts[1])
	}
	// Only the first pipe splits; passwords may contain pipes
	if accounts[2].Password != "pass|with|pipes" {
		t.Errorf("accounts[2].Password = %q", accounts[2].Password)
	}
}

func TestParse_Empty(t *testing.T) {
	accounts, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Errorf("len = %d, want 0", len(accounts))
	}
}

func TestParseYAML(t *testing.T) {
	input := []byte(`
- label: main
  username: alice
  password: secret1
- username: bob
  password: hunter2
- username: incomplete
`)
	accounts, err := ParseYAML(input)
	if err != nil {
		t.Fatal(err)
	}

	if len(accounts) != 2 {
		t.Fatalf("len = %d, want 2 (incomplete entry dropped)", len(accounts))
	}
	if accounts[0].Label != "main" || accounts[0].Username != "alice" {
		t.Errorf("accounts[0] = %+v", accounts[0])
	}
	if accounts[0].Name() != "main" {
		t.Errorf("Name() = %s, want main", accounts[0].Name())
	}
	if accounts[1].Name() != "bob" {
		t.Errorf("Name() = %s, want bob", accounts[1].Name())
	}
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	txtPath := filepath.Join(dir, "accounts.txt")
	if err := os.WriteFile(txtPath, []byte("alice|secret1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	yamlPath := filepath.Join(dir, "accounts.yaml")
	if err := os.WriteFile(yamlPath, []byte("- username: bob\n  password: p\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	txt, err := Load(txtPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(txt) != 1 || txt[0].Username != "alice" {
		t.Errorf("txt = %+v", txt)
	}

	yml, err := Load(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(yml) != 1 || yml[0].Username != "bob" {
		t.Errorf("yaml = %+v", yml)
	}
}

func TestFind(t *testing.T) {
	accounts, _ := ParseYAML([]byte("- label: main\n  username: alice\n  password: s\n- username: bob\n  password: p\n"))

	if a, ok := Find(accounts, "main"); !ok || a.Username != "alice" {
		t.Errorf("Find(main) = %+v, %v", a, ok)
	}
	if a, ok := Find(accounts, "bob"); !ok || a.Username != "bob" {
		t.Errorf("Find(bob) = %+v, %v", a, ok)
	}
	if _, ok := Find(accounts, "nobody"); ok {
		t.Error("Find(nobody) = true, want false")
	}
}
