package token

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// Missing file means no token, not an error
	tok, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("Token on missing file: %v", err)
	}
	if tok != "" {
		t.Errorf("Token = %q, want empty", tok)
	}

	if err := store.SetToken(ctx, "tok-abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	tok, err = store.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "tok-abc" {
		t.Errorf("Token = %q, want tok-abc", tok)
	}

	// A second store on the same path sees the persisted value
	tok, err = NewFileStore(path).Token(ctx)
	if err != nil {
		t.Fatalf("Token from second store: %v", err)
	}
	if tok != "tok-abc" {
		t.Errorf("Token = %q, want tok-abc", tok)
	}
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// Clearing an absent token is a no-op
	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken on missing file: %v", err)
	}

	if err := store.SetToken(ctx, "tok-abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}

	tok, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "" {
		t.Errorf("Token = %q, want empty after clear", tok)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Token(context.Background()); err == nil {
		t.Error("expected error for corrupt token file")
	}
}
