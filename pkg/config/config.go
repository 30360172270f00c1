package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Retrieval struct {
		UseSimilarityThreshold bool    `yaml:"use_similarity_threshold"`
		SimilarityThreshold    float64 `yaml:"similarity_threshold"`
		UseRerank              bool    `yaml:"use_rerank"`
		UseHyde                bool    `yaml:"use_hyde"`
		MaxTokensPerChunk      int     `yaml:"max_tokens_per_chunk"`
		TopK                   int     `yaml:"top_k"`
	} `yaml:"retrieval"`

	Rerank struct {
		Model string `yaml:"model"`
	} `yaml:"rerank"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Annotator struct {
		RateLimit float64 `yaml:"rate_limit"` // completion calls per second
	} `yaml:"annotator"`

	Paths struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"paths"`

	Keys struct {
		OpenAI string `yaml:"-"`
		Cohere string `yaml:"-"`
	} `yaml:"-"`
}

// LoadConfig reads the YAML config at path, falling back to the default
// locations and then to built-in defaults. Values absent from the file keep
// their defaults; environment variables are merged last.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragagent/config.yaml"),
			"/etc/ragagent/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	}

	mergeWithEnv(config)

	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}

	config.LLM.Model = "gpt-4o-mini"
	config.LLM.EmbeddingModel = "text-embedding-3-small"
	config.LLM.MaxTokens = 2000
	config.LLM.Temperature = 0.0

	config.Retrieval.UseSimilarityThreshold = true
	config.Retrieval.SimilarityThreshold = 0.2
	config.Retrieval.UseRerank = false
	config.Retrieval.UseHyde = true
	config.Retrieval.MaxTokensPerChunk = 500
	config.Retrieval.TopK = 3

	config.Rerank.Model = "rerank-multilingual-v3.0"

	config.Database.TableName = "contextual_chunks"
	config.Database.VectorDim = 1536

	config.Annotator.RateLimit = 2.0

	config.Paths.DataDir = "data"

	return config
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if dataDir := os.Getenv("RAG_DATA_DIR"); dataDir != "" {
		config.Paths.DataDir = dataDir
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Keys.OpenAI = key
	}
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		config.Keys.Cohere = key
	}
}
