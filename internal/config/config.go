package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Extractor backends selectable via the EXTRACTOR variable.
const (
	ExtractorDeepInfra = "deepinfra"
	ExtractorGemini    = "gemini"
)

// Config carries every runtime setting the pipeline needs. It is constructed
// once in main and passed through explicitly; nothing reads the environment
// after Load returns.
type Config struct {
	// DeepInfraToken authenticates against the DeepInfra OpenAI-compatible API.
	DeepInfraToken string

	// Extractor selects the page-extraction backend: "deepinfra" or "gemini".
	Extractor string

	// TallyHost and TallyPort locate the TallyPrime HTTP gateway.
	TallyHost string
	TallyPort int

	// CompanyName is the company the vouchers are posted into.
	CompanyName string

	// ResultsDir is where merged invoice JSON and voucher XML are persisted.
	ResultsDir string

	// UploadDir is where the API server stores uploaded files before processing.
	UploadDir string
}

// BaseURL returns the TallyPrime endpoint URL.
func (c Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.TallyHost, c.TallyPort)
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (Config, error) {
	// Missing .env is fine; real environment variables win either way.
	_ = godotenv.Load()

	cfg := Config{
		DeepInfraToken: os.Getenv("DEEPINFRA_TOKEN"),
		Extractor:      getenvDefault("EXTRACTOR", ExtractorDeepInfra),
		TallyHost:      getenvDefault("TALLY_HOST", "localhost"),
		TallyPort:      9000,
		CompanyName:    getenvDefault("COMPANY_NAME", "Default Company"),
		ResultsDir:     getenvDefault("RESULTS_DIR", "results"),
		UploadDir:      getenvDefault("UPLOAD_DIR", "uploads"),
	}

	if portStr := os.Getenv("TALLY_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid TALLY_PORT %q: %w", portStr, err)
		}
		cfg.TallyPort = port
	}

	return cfg, nil
}

// Validate checks that the credentials required by the selected extractor are
// present. Endpoint settings always have defaults and need no validation.
func (c Config) Validate() error {
	switch c.Extractor {
	case ExtractorDeepInfra:
		if c.DeepInfraToken == "" {
			return fmt.Errorf("config: DEEPINFRA_TOKEN not set; export it or add it to .env")
		}
	case ExtractorGemini:
		// The genai client reads its own GEMINI_API_KEY / GOOGLE_API_KEY.
	default:
		return fmt.Errorf("config: unknown extractor %q (want %s or %s)",
			c.Extractor, ExtractorDeepInfra, ExtractorGemini)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
