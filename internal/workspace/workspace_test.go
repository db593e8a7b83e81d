package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"briefcast/internal/workspace"
)

func TestScopeLifecycle(t *testing.T) {
	root := t.TempDir()

	scope, err := workspace.NewScope(root)
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if scope.Token() == "" {
		t.Fatal("expected non-empty token")
	}
	if filepath.Dir(scope.Dir()) != root {
		t.Fatalf("scope dir %q not under root %q", scope.Dir(), root)
	}

	artifact := scope.Path("audio.wav")
	if err := os.WriteFile(artifact, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(scope.Dir()); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err: %v", err)
	}

	// Release is idempotent.
	if err := scope.Release(); err != nil {
		t.Fatalf("Release (repeat): %v", err)
	}
}

func TestScopesDoNotCollide(t *testing.T) {
	root := t.TempDir()

	first, err := workspace.NewScope(root)
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	second, err := workspace.NewScope(root)
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if first.Dir() == second.Dir() {
		t.Fatal("expected distinct scratch dirs")
	}
	if first.Path("x") == second.Path("x") {
		t.Fatal("expected distinct artifact paths")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(second.Dir()); err != nil {
		t.Fatalf("expected sibling scope untouched: %v", err)
	}
	_ = second.Release()
}

func TestNewScopeRequiresRoot(t *testing.T) {
	if _, err := workspace.NewScope(""); err == nil {
		t.Fatal("expected error for empty work root")
	}
}
