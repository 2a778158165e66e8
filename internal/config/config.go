package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Widget    WidgetConfig `yaml:"widget"`
	Auth      AuthConfig   `yaml:"auth"`
	LLM       LLMConfig    `yaml:"llm"`
	Embedding LLMConfig    `yaml:"embedding"`
	RAG       RAGConfig    `yaml:"rag"`
	Server    ServerConfig `yaml:"server"`
	Log       LogConfig    `yaml:"log"`
}

// WidgetConfig points the chat widget at an answer API.
type WidgetConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TopK           int    `yaml:"top_k"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AuthConfig struct {
	DatabaseURL string `yaml:"database_url"`
	DatabaseKey string `yaml:"database_key"`
	Token       string `yaml:"token"`
	Debug       bool   `yaml:"debug"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	TopK          int    `yaml:"top_k"`
	DBPath        string `yaml:"db_path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
	DatabaseURL   string `yaml:"database_url"`
	DatabaseKey   string `yaml:"database_key"`
	Debug         bool   `yaml:"debug"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

const (
	defaultTopK           = 3
	defaultTimeoutSeconds = 30
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 500
	defaultPort           = 8080
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Widget.TopK == 0 {
		c.Widget.TopK = defaultTopK
	}
	if c.Widget.TimeoutSeconds == 0 {
		c.Widget.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
}
