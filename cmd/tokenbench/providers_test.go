package main

import (
	"encoding/json"
	"strings"
	"testing"
)

const providersConfig = `
experiment:
  providers: [openai]
providers:
  openai:
    model: gpt-4o
    api_key: sk-test-openai-0123456789
    min_interval: 250ms
  gemini:
    model: gemini-2.5-pro
  anthropic:
    model: claude-sonnet-4-20250514
    api_key: your-anthropic-key
telemetry:
  logging:
    level: error
`

func TestListProviders_JSON(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	useConfig(t, t.TempDir(), providersConfig)
	providersFlags.output = "json"

	cmd, out := newTestCmd()
	if err := listProviders(cmd, nil); err != nil {
		t.Fatalf("listProviders() error = %v", err)
	}

	var got []providerStatus
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}

	byID := make(map[string]providerStatus)
	for _, st := range got {
		byID[st.Provider] = st
	}
	if len(byID) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(byID))
	}

	openai := byID["openai"]
	if !openai.Present || !openai.Selected || openai.Model != "gpt-4o" {
		t.Errorf("openai = %+v, want present and selected", openai)
	}
	if byID["gemini"].Present || byID["gemini"].Selected {
		t.Errorf("gemini = %+v, want missing and not selected", byID["gemini"])
	}
	if byID["anthropic"].Present || !strings.Contains(byID["anthropic"].Reason, "placeholder") {
		t.Errorf("anthropic = %+v, want placeholder reason", byID["anthropic"])
	}
}

func TestListProviders_NeverPrintsKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaSyTestKeyValue0123456789")
	useConfig(t, t.TempDir(), providersConfig)

	for _, format := range []string{"text", "json", "csv"} {
		t.Run(format, func(t *testing.T) {
			providersFlags.output = format

			cmd, out := newTestCmd()
			if err := listProviders(cmd, nil); err != nil {
				t.Fatalf("listProviders() error = %v", err)
			}
			for _, secret := range []string{"sk-test-openai-0123456789", "AIzaSyTestKeyValue0123456789"} {
				if strings.Contains(out.String(), secret) {
					t.Errorf("%s output contains a credential value", format)
				}
			}
			if !strings.Contains(out.String(), "250ms") {
				t.Errorf("%s output missing min interval:\n%s", format, out.String())
			}
		})
	}
}
