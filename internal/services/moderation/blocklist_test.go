package moderation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBlocklistCheckIsCaseInsensitive(t *testing.T) {
	list := NewBlocklist([]string{"BadWord"})

	result := list.Check("this contains a BADWORD somewhere")
	if !result.Blocked {
		t.Fatalf("expected blocked result")
	}
	if len(result.FoundTerms) != 1 || result.FoundTerms[0] != "badword" {
		t.Fatalf("unexpected found terms: %v", result.FoundTerms)
	}
	if result.Reason == "" {
		t.Fatalf("expected a reason on blocked result")
	}
}

func TestBlocklistCheckIsDeterministic(t *testing.T) {
	list := NewBlocklist([]string{"zeta", "alpha"})
	text := "alpha and zeta together"

	first := list.Check(text)
	second := list.Check(text)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input produced different results: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(first.FoundTerms, []string{"alpha", "zeta"}) {
		t.Fatalf("expected sorted term order, got %v", first.FoundTerms)
	}
}

func TestBlocklistCleanTextPasses(t *testing.T) {
	list := NewBlocklist(nil)

	result := list.Check("a perfectly friendly bio about hiking and coffee")
	if result.Blocked {
		t.Fatalf("clean text should not be blocked: %+v", result)
	}
	if len(result.FoundTerms) != 0 {
		t.Fatalf("expected no found terms, got %v", result.FoundTerms)
	}
}

func TestBlocklistCheckBatchPreservesOrder(t *testing.T) {
	list := NewBlocklist([]string{"spam"})

	results := list.CheckBatch([]string{"spam here", "clean", "", "more spam"})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Blocked || results[1].Blocked || results[2].Blocked || !results[3].Blocked {
		t.Fatalf("unexpected batch outcome: %+v", results)
	}
}

func TestLoadBlocklistFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")
	content := "# comment line\ncustomterm\n\n  spaced  \n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write blocklist file: %v", err)
	}

	list, err := LoadBlocklist(path, []string{"extraterm"})
	if err != nil {
		t.Fatalf("load blocklist: %v", err)
	}

	if !list.Check("some customterm text").Blocked {
		t.Fatalf("expected file term to block")
	}
	if !list.Check("extraterm text").Blocked {
		t.Fatalf("expected extra term to block")
	}
	if list.Check("# comment line").Blocked {
		t.Fatalf("comment line must not become a term")
	}
}

func TestLoadBlocklistMissingFileKeepsDefaults(t *testing.T) {
	list, err := LoadBlocklist(filepath.Join(t.TempDir(), "absent.txt"), nil)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if list.Size() == 0 {
		t.Fatalf("defaults should still be loaded")
	}
}
