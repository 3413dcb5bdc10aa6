package llm

import "testing"

func TestGetModel(t *testing.T) {
	m, err := GetModel(ModelGPT4o)
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	if m.Provider != ProviderOpenAI || !m.ToolUse {
		t.Fatalf("unexpected model: %+v", m)
	}

	if _, err := GetModel("made-up-model"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestInferProvider(t *testing.T) {
	cases := []struct {
		model   string
		want    Provider
		wantErr bool
	}{
		{ModelGPT4o, ProviderOpenAI, false},
		{ModelClaude35Sonnet, ProviderAnthropic, false},
		// Unregistered revisions still route by prefix
		{"gpt-5-preview", ProviderOpenAI, false},
		{"o1-mini", ProviderOpenAI, false},
		{"claude-4-opus-20260101", ProviderAnthropic, false},
		{"llama-3-70b", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := InferProvider(tc.model)
		if tc.wantErr {
			if err == nil {
				t.Errorf("InferProvider(%q): expected error", tc.model)
			}
			continue
		}
		if err != nil {
			t.Errorf("InferProvider(%q): %v", tc.model, err)
			continue
		}
		if got != tc.want {
			t.Errorf("InferProvider(%q) = %q, want %q", tc.model, got, tc.want)
		}
	}
}

func TestValidateModel(t *testing.T) {
	if err := ValidateModel(ModelClaude35Haiku); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ValidateModel("nope"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetModelsByProvider(t *testing.T) {
	models := GetModelsByProvider(ProviderAnthropic)
	if len(models) == 0 {
		t.Fatalf("expected anthropic models")
	}
	for _, m := range models {
		if m.Provider != ProviderAnthropic {
			t.Errorf("wrong provider: %+v", m)
		}
	}
}
