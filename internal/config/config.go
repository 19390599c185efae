package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"filing-rag/internal/models"
)

type Config struct {
	DataDir   string          `yaml:"data_dir"`
	OutDir    string          `yaml:"out_dir"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	RAG       RAGConfig       `yaml:"rag"`
	Server    ServerConfig    `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	BaseURL        string        `yaml:"base_url"`
	Key            string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	DecomposeModel string        `yaml:"decompose_model"`
	Timeout        time.Duration `yaml:"timeout"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"`
	FirstLineOnly bool   `yaml:"first_line_only"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type IndexConfig struct {
	Collection    string `yaml:"collection"`
	Concurrency   int    `yaml:"concurrency"`
	SnapshotPath  string `yaml:"snapshot_path"`
	EncryptionKey string `yaml:"encryption_key"`
}

type RAGConfig struct {
	DefaultK         int      `yaml:"default_k"`
	MaxK             int      `yaml:"max_k"`
	Parallelism      int      `yaml:"parallelism"`
	ExcerptLen       int      `yaml:"excerpt_len"`
	StructuredOutput bool     `yaml:"structured_output"`
	DefaultCompanies []string `yaml:"default_companies"`
}

type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

const (
	envLLMKey      = "FINRAG_LLM_API_KEY"
	envEmbedKey    = "FINRAG_EMBED_API_KEY"
	envDatabaseDSN = "FINRAG_DATABASE_DSN"
)

// Defaults returns a config that runs fully offline against ./data and ./out.
func Defaults() *Config {
	return &Config{
		DataDir: "data",
		OutDir:  "out",
		Log:     LogConfig{Level: "info", Format: "console"},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Embedding: EmbeddingConfig{Provider: "hashing", Dimension: 384},
		Chunking:  ChunkingConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Store:     StoreConfig{Backend: "jsonl"},
		Database:  DatabaseConfig{Driver: "pgdriver"},
		Index:     IndexConfig{Collection: "filings", Concurrency: 4},
		RAG: RAGConfig{
			DefaultK:         5,
			MaxK:             50,
			Parallelism:      4,
			ExcerptLen:       models.DefaultExcerptLen,
			DefaultCompanies: append([]string(nil), models.DefaultCompanies...),
		},
		Server: ServerConfig{Addr: ":8000", Burst: 1},
	}
}

// LoadConfig reads the YAML file at path on top of Defaults. A missing file
// is not an error. Secrets from the environment (and an optional .env file)
// override the file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envLLMKey); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv(envEmbedKey); v != "" {
		cfg.Embedding.Key = v
	}
	if v := os.Getenv(envDatabaseDSN); v != "" {
		cfg.Database.DSN = v
	}
}

// fill zero values a partial YAML file leaves behind
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.LLM.DecomposeModel == "" {
		cfg.LLM.DecomposeModel = cfg.LLM.Model
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = d.LLM.Timeout
	}
	if cfg.Embedding.Provider == "hashing" && cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = d.Embedding.Dimension
	}
	if cfg.Embedding.Key == "" {
		cfg.Embedding.Key = cfg.LLM.Key
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = d.Index.Collection
	}
	if cfg.Index.Concurrency == 0 {
		cfg.Index.Concurrency = d.Index.Concurrency
	}
	if cfg.RAG.DefaultK == 0 {
		cfg.RAG.DefaultK = d.RAG.DefaultK
	}
	if cfg.RAG.MaxK == 0 {
		cfg.RAG.MaxK = d.RAG.MaxK
	}
	if cfg.RAG.ExcerptLen == 0 {
		cfg.RAG.ExcerptLen = d.RAG.ExcerptLen
	}
	if len(cfg.RAG.DefaultCompanies) == 0 {
		cfg.RAG.DefaultCompanies = d.RAG.DefaultCompanies
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = d.Server.Burst
	}
}

func Validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
	switch cfg.Embedding.Provider {
	case "openai", "ollama":
	case "hashing":
		if cfg.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding dimension must be positive, got %d", cfg.Embedding.Dimension)
		}
	default:
		return fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}
	if cfg.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap < 0 || cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", cfg.Chunking.ChunkOverlap)
	}
	switch cfg.Store.Backend {
	case "jsonl":
	case "postgres":
		if cfg.Database.DSN == "" {
			return errors.New("postgres store requires database.dsn")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
	switch cfg.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
	if key := cfg.Index.EncryptionKey; key != "" && len(key) != 32 {
		return fmt.Errorf("encryption_key must be 32 bytes, got %d", len(key))
	}
	if cfg.Index.Concurrency < 1 {
		return fmt.Errorf("index concurrency must be at least 1, got %d", cfg.Index.Concurrency)
	}
	if cfg.RAG.DefaultK < 1 {
		return fmt.Errorf("default_k must be at least 1, got %d", cfg.RAG.DefaultK)
	}
	if cfg.RAG.MaxK < cfg.RAG.DefaultK {
		return fmt.Errorf("max_k (%d) must not be below default_k (%d)", cfg.RAG.MaxK, cfg.RAG.DefaultK)
	}
	if cfg.RAG.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", cfg.RAG.Parallelism)
	}
	if cfg.RAG.ExcerptLen < 1 {
		return fmt.Errorf("excerpt_len must be at least 1, got %d", cfg.RAG.ExcerptLen)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", cfg.Server.RateLimit)
	}
	return nil
}
