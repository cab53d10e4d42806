package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Config represents the application configuration
type Config struct {
	EnvFile    string           `toml:"env_file"` // Path to a .env file loaded into the KV store on startup (default: ".env")
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Documents  DocumentsConfig  `toml:"documents"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	LLM        LLMConfig        `toml:"llm"`
	Index      IndexConfig      `toml:"index"`
	Evaluation EvaluationConfig `toml:"evaluation"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                                             // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path" validate:"required"` // Database directory path
}

// DocumentsConfig describes where policy documents are loaded from
type DocumentsConfig struct {
	Dir        string   `toml:"dir" validate:"required"` // Directory containing policy documents
	Extensions []string `toml:"extensions"`              // File extensions to ingest (default: [".txt", ".md", ".pdf"])
}

// ChunkingConfig controls how documents are split before embedding
type ChunkingConfig struct {
	Size    int `toml:"size" validate:"gt=0"`              // Maximum chunk size in characters
	Overlap int `toml:"overlap" validate:"gte=0,ltfield=Size"` // Characters carried over between adjacent chunks
}

// RetrievalConfig controls passage selection for a question
type RetrievalConfig struct {
	TopK                int     `toml:"top_k" validate:"gt=0"`                       // Passages retrieved per question
	SimilarityThreshold float32 `toml:"similarity_threshold" validate:"gte=-1,lte=1"` // Minimum cosine similarity to keep a passage
	ContextMaxChars     int     `toml:"context_max_chars" validate:"gt=0"`           // Character budget for the assembled context block
}

// EmbeddingConfig contains embedding model configuration (Gemini API)
type EmbeddingConfig struct {
	Model             string  `toml:"model" validate:"required"`           // Embedding model (default: "gemini-embedding-001")
	Dimension         int     `toml:"dimension" validate:"gt=0"`           // Expected vector dimension (default: 3072)
	BatchSize         int     `toml:"batch_size" validate:"gt=0"`          // Chunks embedded per API request batch
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"` // Client-side rate limit for embedding calls
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key (or {gemini_api_key} reference)
	Model       string  `toml:"model"`       // Model for answer generation (default: "gemini-2.0-flash")
	Temperature float32 `toml:"temperature"` // Generation temperature (default: 0.1 for factual answers)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (or {anthropic_api_key} reference)
	Model       string  `toml:"model"`       // Model for answer generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature"` // Generation temperature (default: 0.1)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"` // Provider for answer generation: "gemini" or "claude"
	PromptVersion   int         `toml:"prompt_version" validate:"oneof=1 2"`             // Answer prompt template version (default: 2)
}

// IndexConfig selects and configures the vector index backend
type IndexConfig struct {
	Provider string         `toml:"provider" validate:"oneof=local pinecone"` // "local" (embedded) or "pinecone" (managed)
	Name     string         `toml:"name" validate:"required"`                 // Index name (default: "rag-policy-docs")
	Metric   string         `toml:"metric" validate:"oneof=cosine"`           // Similarity metric; only cosine is supported
	Pinecone PineconeConfig `toml:"pinecone"`
}

// PineconeConfig contains Pinecone serverless index configuration
type PineconeConfig struct {
	APIKey    string `toml:"api_key"`   // Pinecone API key (or {pinecone_api_key} reference)
	Host      string `toml:"host"`      // Index host URL from the Pinecone console
	Cloud     string `toml:"cloud"`     // Serverless cloud (default: "aws")
	Region    string `toml:"region"`    // Serverless region (default: "us-east-1")
	Namespace string `toml:"namespace"` // Namespace within the index (default: "")
	Timeout   string `toml:"timeout"`   // HTTP timeout as duration string (default: "30s")
}

// EvaluationConfig controls the evaluation harness
type EvaluationConfig struct {
	Dataset    string `toml:"dataset" validate:"required"`     // YAML file of evaluation cases
	ResultsDir string `toml:"results_dir" validate:"required"` // Directory for JSON run reports
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in responsum.toml.
func NewDefaultConfig() *Config {
	return &Config{
		EnvFile: ".env", // Loaded into the KV store when present
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Documents: DocumentsConfig{
			Dir:        "./docs/policies",                 // Default corpus directory
			Extensions: []string{".txt", ".md", ".pdf"}, // Supported document formats
		},
		Chunking: ChunkingConfig{
			Size:    2000, // Characters per chunk
			Overlap: 200,  // Characters shared between adjacent chunks
		},
		Retrieval: RetrievalConfig{
			TopK:                3,    // Passages per question
			SimilarityThreshold: 0.3,  // Below this a passage is considered noise
			ContextMaxChars:     8000, // Context block budget
		},
		Embedding: EmbeddingConfig{
			Model:             "gemini-embedding-001", // Gemini embedding model
			Dimension:         3072,                   // Native dimension of gemini-embedding-001
			BatchSize:         16,                     // Chunks per embedding batch
			RequestsPerSecond: 2,                      // Stays inside free-tier quotas
		},
		Gemini: GeminiConfig{
			APIKey:      "",                 // User must provide API key (no fallback)
			Model:       "gemini-2.0-flash", // Model for answer generation
			Temperature: 0.1,                // Low temperature for factual answers
			Timeout:     "5m",               // 5 minutes for operations
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for answer generation
			MaxTokens:   8192,                        // Default max tokens
			Temperature: 0.1,                         // Low temperature for factual answers
			Timeout:     "5m",                        // 5 minutes for operations
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini, // Default to Gemini
			PromptVersion:   2,                 // Strict grounding prompt with citations
		},
		Index: IndexConfig{
			Provider: "local",           // Embedded index; "pinecone" for the managed backend
			Name:     "rag-policy-docs", // Index name
			Metric:   "cosine",
			Pinecone: PineconeConfig{
				APIKey:    "", // User must provide API key (PINECONE_API_KEY or config)
				Host:      "", // Required when provider is "pinecone"
				Cloud:     "aws",
				Region:    "us-east-1",
				Namespace: "",
				Timeout:   "30s",
			},
		},
		Evaluation: EvaluationConfig{
			Dataset:    "./eval/questions.yaml", // Evaluation cases
			ResultsDir: "./results",             // JSON run reports
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
// kvStorage can be nil for backward compatibility (replacement will be skipped)
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. Priority system: CLI flags > Environment variables > Last config file > ... > First config file > Defaults
// kvStorage can be nil during bootstrap (replacement is re-applied once storage is up)
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Perform {key-name} replacement if KV storage is available
	if kvStorage != nil {
		if err := ApplyKeyReplacements(config, kvStorage); err != nil {
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("Failed to replace key references in config")
		}
	}

	// Apply environment variables (overrides all file configs and replacements)
	applyEnvOverrides(config)

	return config, nil
}

// ApplyKeyReplacements resolves {key-name} references in the config from
// the KV store. Called a second time after storage initialization so keys
// loaded from the .env file are visible.
func ApplyKeyReplacements(config *Config, kvStorage interfaces.KeyValueStorage) error {
	ctx := context.Background()
	pairs, err := kvStorage.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch KV map for config replacement: %w", err)
	}

	kvMap := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		kvMap[pair.Key] = pair.Value
	}

	logger := arbor.NewLogger()
	if err := ReplaceInStruct(config, kvMap, logger); err != nil {
		return err
	}

	logger.Debug().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Logging configuration
	if level := os.Getenv("RESPONSUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RESPONSUM_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("RESPONSUM_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Documents configuration
	if docsDir := os.Getenv("RESPONSUM_DOCS_DIR"); docsDir != "" {
		config.Documents.Dir = docsDir
	}
	if extensions := os.Getenv("RESPONSUM_DOCS_EXTENSIONS"); extensions != "" {
		exts := []string{}
		for _, e := range splitString(extensions, ",") {
			trimmed := trimSpace(e)
			if trimmed != "" {
				exts = append(exts, trimmed)
			}
		}
		if len(exts) > 0 {
			config.Documents.Extensions = exts
		}
	}

	// Chunking configuration
	if size := os.Getenv("RESPONSUM_CHUNK_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Chunking.Size = s
		}
	}
	if overlap := os.Getenv("RESPONSUM_CHUNK_OVERLAP"); overlap != "" {
		if o, err := strconv.Atoi(overlap); err == nil {
			config.Chunking.Overlap = o
		}
	}

	// Retrieval configuration
	if topK := os.Getenv("RESPONSUM_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = k
		}
	}
	if threshold := os.Getenv("RESPONSUM_SIMILARITY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 32); err == nil {
			config.Retrieval.SimilarityThreshold = float32(t)
		}
	}
	if maxChars := os.Getenv("RESPONSUM_CONTEXT_MAX_CHARS"); maxChars != "" {
		if m, err := strconv.Atoi(maxChars); err == nil {
			config.Retrieval.ContextMaxChars = m
		}
	}

	// Embedding configuration
	if model := os.Getenv("RESPONSUM_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dimension := os.Getenv("RESPONSUM_EMBEDDING_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embedding.Dimension = d
		}
	}
	if batchSize := os.Getenv("RESPONSUM_EMBEDDING_BATCH_SIZE"); batchSize != "" {
		if b, err := strconv.Atoi(batchSize); err == nil {
			config.Embedding.BatchSize = b
		}
	}
	if rps := os.Getenv("RESPONSUM_EMBEDDING_REQUESTS_PER_SECOND"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil {
			config.Embedding.RequestsPerSecond = r
		}
	}

	// Gemini configuration
	// RESPONSUM_ prefix takes priority, then the standard Google env vars
	if apiKey := os.Getenv("RESPONSUM_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("RESPONSUM_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if temperature := os.Getenv("RESPONSUM_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}
	if timeout := os.Getenv("RESPONSUM_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSUM_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // RESPONSUM_ prefix takes priority
	}
	if model := os.Getenv("RESPONSUM_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("RESPONSUM_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if temperature := os.Getenv("RESPONSUM_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}
	if timeout := os.Getenv("RESPONSUM_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// LLM provider configuration
	if provider := os.Getenv("RESPONSUM_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if version := os.Getenv("RESPONSUM_PROMPT_VERSION"); version != "" {
		if v, err := strconv.Atoi(version); err == nil {
			config.LLM.PromptVersion = v
		}
	}

	// Index configuration
	if provider := os.Getenv("RESPONSUM_INDEX_PROVIDER"); provider != "" {
		config.Index.Provider = provider
	}
	if name := os.Getenv("RESPONSUM_INDEX_NAME"); name != "" {
		config.Index.Name = name
	}
	if apiKey := os.Getenv("PINECONE_API_KEY"); apiKey != "" {
		config.Index.Pinecone.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSUM_PINECONE_API_KEY"); apiKey != "" {
		config.Index.Pinecone.APIKey = apiKey // RESPONSUM_ prefix takes priority
	}
	if host := os.Getenv("RESPONSUM_PINECONE_HOST"); host != "" {
		config.Index.Pinecone.Host = host
	}
	if namespace := os.Getenv("RESPONSUM_PINECONE_NAMESPACE"); namespace != "" {
		config.Index.Pinecone.Namespace = namespace
	}

	// Evaluation configuration
	if dataset := os.Getenv("RESPONSUM_EVAL_DATASET"); dataset != "" {
		config.Evaluation.Dataset = dataset
	}
	if resultsDir := os.Getenv("RESPONSUM_RESULTS_DIR"); resultsDir != "" {
		config.Evaluation.ResultsDir = resultsDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, quiet bool) {
	// Command-line flags have highest priority
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if quiet {
		// Keep file logging, drop console output
		outputs := []string{}
		for _, o := range config.Logging.Output {
			if o != "stdout" && o != "console" {
				outputs = append(outputs, o)
			}
		}
		config.Logging.Output = outputs
	}
}

// Validate checks the configuration against struct tags plus the
// cross-section rules tags cannot express. Returns a ConfigurationError
// naming the first offending field.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			return models.NewConfigurationError(field.Namespace(), fmt.Sprintf("failed '%s' validation", field.Tag()))
		}
		return models.NewConfigurationError("", err.Error())
	}

	if c.Index.Provider == "pinecone" && c.Index.Pinecone.Host == "" {
		return models.NewConfigurationError("index.pinecone.host", "required when index.provider is 'pinecone'")
	}

	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → KV store → config fallback → error
// This ensures RESPONSUM_* environment variables always take precedence
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Map of KV store key names to environment variable names
	// Environment variables have highest priority
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"RESPONSUM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"google_api_key":    {"RESPONSUM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}, // Legacy KV store key
		"anthropic_api_key": {"RESPONSUM_CLAUDE_API_KEY"},
		"claude_api_key":    {"RESPONSUM_CLAUDE_API_KEY"},
		"pinecone_api_key":  {"RESPONSUM_PINECONE_API_KEY", "PINECONE_API_KEY"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	// Check environment variables (highest priority)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority - .env file values)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// PromptVersion returns the configured prompt version as a typed value.
func (c *Config) PromptVersion() models.PromptVersion {
	v := models.PromptVersion(c.LLM.PromptVersion)
	if !v.Valid() {
		return models.DefaultPromptVersion
	}
	return v
}

// GenerationModel returns the model name for the configured default provider.
func (c *Config) GenerationModel() string {
	if c.LLM.DefaultProvider == LLMProviderClaude {
		return c.Claude.Model
	}
	return c.Gemini.Model
}

// HasConsoleOutput reports whether stdout logging is enabled.
func (c *Config) HasConsoleOutput() bool {
	for _, o := range c.Logging.Output {
		if o == "stdout" || o == "console" {
			return true
		}
	}
	return false
}
