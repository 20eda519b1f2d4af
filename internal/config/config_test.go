package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEEPINFRA_TOKEN", "tok")
	t.Setenv("EXTRACTOR", "")
	t.Setenv("TALLY_HOST", "")
	t.Setenv("TALLY_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TallyHost != "localhost" {
		t.Errorf("TallyHost = %q, want localhost", cfg.TallyHost)
	}
	if cfg.TallyPort != 9000 {
		t.Errorf("TallyPort = %d, want 9000", cfg.TallyPort)
	}
	if cfg.Extractor != ExtractorDeepInfra {
		t.Errorf("Extractor = %q, want %q", cfg.Extractor, ExtractorDeepInfra)
	}
	if got, want := cfg.BaseURL(), "http://localhost:9000"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("TALLY_PORT", "ninethousand")

	if _, err := Load(); err == nil {
		t.Error("Load() with non-numeric TALLY_PORT: expected error, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "deepinfra with token",
			cfg:     Config{Extractor: ExtractorDeepInfra, DeepInfraToken: "tok"},
			wantErr: false,
		},
		{
			name:    "deepinfra without token",
			cfg:     Config{Extractor: ExtractorDeepInfra},
			wantErr: true,
		},
		{
			name:    "gemini needs no deepinfra token",
			cfg:     Config{Extractor: ExtractorGemini},
			wantErr: false,
		},
		{
			name:    "unknown extractor",
			cfg:     Config{Extractor: "tesseract"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
