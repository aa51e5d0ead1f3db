package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		Host  string `yaml:"host"`
		Token string `yaml:"token"`
	} `yaml:"api"`

	Upload struct {
		// Raw-byte budget for one chunk's content before compression.
		ChunkSizeBytes int64 `yaml:"chunkSizeBytes"`
	} `yaml:"upload"`

	Engine struct {
		Command string `yaml:"command"`
	} `yaml:"engine"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Logging struct {
		Debug bool `yaml:"debug"`
	} `yaml:"logging"`
}

// DefaultChunkSizeBytes applies when the config leaves the budget unset.
const DefaultChunkSizeBytes = 50 << 20

// Load reads the config file and applies env overrides. A missing file is
// not an error; env-only configuration is enough for CI use.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnvOverrides()
	if cfg.Upload.ChunkSizeBytes <= 0 {
		cfg.Upload.ChunkSizeBytes = DefaultChunkSizeBytes
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WARDEN_API_HOST"); v != "" {
		c.API.Host = v
	}
	if v := os.Getenv("WARDEN_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
}

// HasDatabase reports whether run history persistence is configured.
func (c *Config) HasDatabase() bool { return c.Database.Host != "" }

// HasMinio reports whether artifact archival is configured.
func (c *Config) HasMinio() bool { return c.Minio.Endpoint != "" }

// MySQLDSN builds the DSN for the mysql driver
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the DSN for lib/pq
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
