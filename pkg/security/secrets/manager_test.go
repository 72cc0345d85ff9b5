package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"costlab-hq/tokenbench/pkg/config"
)

// staticProvider is an in-memory SecretProvider for chain tests.
type staticProvider struct {
	name      string
	values    map[string]string
	refreshed int
}

func (p *staticProvider) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (p *staticProvider) ListSecrets(context.Context) ([]string, error) {
	var names []string
	for n := range p.values {
		names = append(names, n)
	}
	return names, nil
}

func (p *staticProvider) Provider() string          { return p.name }
func (p *staticProvider) Supports(name string) bool { return true }

func (p *staticProvider) Refresh(context.Context) error {
	p.refreshed++
	return nil
}

func TestManager_FirstMatchWins(t *testing.T) {
	first := &staticProvider{name: "first", values: map[string]string{"openai-api-key": "sk-first"}}
	second := &staticProvider{name: "second", values: map[string]string{
		"openai-api-key": "sk-second",
		"grok-api-key":   "xai-second",
	}}

	m := NewManager(first, second)
	ctx := context.Background()

	if v, _ := m.GetSecret(ctx, "openai-api-key"); v != "sk-first" {
		t.Errorf("expected first provider to win, got %q", v)
	}
	if v, _ := m.GetSecret(ctx, "grok-api-key"); v != "xai-second" {
		t.Errorf("expected fallback to second provider, got %q", v)
	}
}

func TestManager_PlaceholderSkipped(t *testing.T) {
	first := &staticProvider{name: "file", values: map[string]string{"openai-api-key": "your-openai-api-key"}}
	second := &staticProvider{name: "env", values: map[string]string{"openai-api-key": "sk-real"}}

	if v, _ := NewManager(first, second).GetSecret(context.Background(), "openai-api-key"); v != "sk-real" {
		t.Errorf("expected placeholder to be skipped, got %q", v)
	}

	_, err := NewManager(first).GetSecret(context.Background(), "openai-api-key")
	if !errors.Is(err, ErrPlaceholder) {
		t.Errorf("expected ErrPlaceholder, got %v", err)
	}
}

func TestManager_NotFound(t *testing.T) {
	m := NewManager(&staticProvider{name: "empty"})

	_, err := m.GetSecret(context.Background(), "gemini-api-key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if m.Present(context.Background(), "gemini-api-key") {
		t.Error("Present must be false for a missing secret")
	}

	_, err = NewManager().GetSecret(context.Background(), "gemini-api-key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("empty chain: expected ErrNotFound, got %v", err)
	}
}

func TestManager_ErrorDoesNotLeakValue(t *testing.T) {
	m := NewManager(&staticProvider{name: "file", values: map[string]string{"k-api-key": "your-secret-value-123"}})

	_, err := m.GetSecret(context.Background(), "k-api-key")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret-value-123") {
		t.Errorf("error must not include the value: %v", err)
	}
}

func TestManager_RefreshAndList(t *testing.T) {
	a := &staticProvider{name: "a", values: map[string]string{"openai-api-key": "1"}}
	b := &staticProvider{name: "b", values: map[string]string{"openai-api-key": "2", "grok-api-key": "3"}}
	m := NewManager(a, b)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.refreshed != 1 || b.refreshed != 1 {
		t.Errorf("expected each provider refreshed once, got %d/%d", a.refreshed, b.refreshed)
	}

	names, _ := m.ListSecrets(context.Background())
	if !reflect.DeepEqual(names, []string{"grok-api-key", "openai-api-key"}) {
		t.Errorf("unexpected names %v", names)
	}
	if !reflect.DeepEqual(m.Sources(), []string{"a", "b"}) {
		t.Errorf("unexpected sources %v", m.Sources())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(&staticProvider{name: "s", values: map[string]string{"openai-api-key": "sk"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.GetSecret(context.Background(), "openai-api-key"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestNewFromConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIza-env")

	m, err := NewFromConfig(config.SecretsConfig{Source: "env"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := m.GetSecret(context.Background(), "gemini-api-key"); v != "AIza-env" {
		t.Errorf("expected env value, got %q", v)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openai-api-key"), []byte("sk-file"), 0600); err != nil {
		t.Fatal(err)
	}
	m, err = NewFromConfig(config.SecretsConfig{Source: "file", Path: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	if !reflect.DeepEqual(m.Sources(), []string{"file", "env"}) {
		t.Errorf("expected file then env, got %v", m.Sources())
	}
	if v, _ := m.GetSecret(context.Background(), "openai-api-key"); v != "sk-file" {
		t.Errorf("expected file value, got %q", v)
	}
	if v, _ := m.GetSecret(context.Background(), "gemini-api-key"); v != "AIza-env" {
		t.Errorf("expected env fallback, got %q", v)
	}

	if _, err := NewFromConfig(config.SecretsConfig{Source: "vault"}); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestRedactSecretName(t *testing.T) {
	if got := redactSecretName("openai-api-key"); got != "op...ey" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := redactSecretName("key"); got != "***" {
		t.Errorf("unexpected redaction %q", got)
	}
}
