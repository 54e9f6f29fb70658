package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"port"`
	AIProvider    string   `mapstructure:"ai_provider"`
	AIEndpoint    string   `mapstructure:"ai_endpoint"`
	Model         string   `mapstructure:"model"`
	EnrichModel   string   `mapstructure:"enrich_model"`
	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys"`

	UploadDir     string `mapstructure:"upload_dir"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	MaxChunkBytes int    `mapstructure:"max_chunk_bytes"`
	Enhanced      bool   `mapstructure:"enhanced"`

	MemoryStore         string              `mapstructure:"memory_store"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	PaprStoreConfig     PaprStoreConfig     `mapstructure:"papr_store_config"`

	ProgressGraceMinutes int `mapstructure:"progress_grace_minutes"`
}

type WeaviateStoreConfig struct {
	Host         string       `mapstructure:"host"`
	APIKey       string       `mapstructure:"WEAVIATE_APIKEY"`
	Text2Vec     string       `mapstructure:"text2vec"`
	ModuleConfig ModuleConfig `mapstructure:"module_config"`
}

type PaprStoreConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"PAPR_API_KEY"`
}

type ModuleConfig map[string]interface{}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("ai_provider", "openai")
	v.SetDefault("memory_store", "weaviate")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_file_size_mb", 50)
	v.SetDefault("max_chunk_bytes", 12000)
	v.SetDefault("progress_grace_minutes", 5)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("PAPR_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
