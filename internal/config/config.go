package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of storeadmin
type Config struct {
	Server    Server    `yaml:"server"`
	Auth      Auth      `yaml:"auth"`
	Firebase  Firebase  `yaml:"firebase"`
	Catalog   Catalog   `yaml:"catalog"`
	Storage   Storage   `yaml:"storage"`
	Images    Images    `yaml:"images"`
	Assistant Assistant `yaml:"assistant"`
}

type Server struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir"`
}

type Auth struct {
	AdminEmail        string        `yaml:"admin_email"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
}

type Firebase struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	StorageBucket   string `yaml:"storage_bucket"`
}

type Catalog struct {
	// Backend is "firestore" or "memory"
	Backend string `yaml:"backend"`
}

type Storage struct {
	// Backend is "firebase", "s3", "local" or "memory"
	Backend  string `yaml:"backend"`
	LocalDir string `yaml:"local_dir"`
	S3       S3     `yaml:"s3"`
}

type S3 struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type Images struct {
	MaxImages int     `yaml:"max_images"`
	MaxWidth  int     `yaml:"max_width"`
	MaxHeight int     `yaml:"max_height"`
	Quality   float64 `yaml:"quality"`
}

type Assistant struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	OllamaURL    string  `yaml:"ollama_url"`
	GeminiAPIKey string  `yaml:"gemini_api_key"`
	OpenAIAPIKey string  `yaml:"openai_api_key"`
}

// Default returns a configuration that runs entirely in memory
func Default() Config {
	return Config{
		Server: Server{
			Port:      "8888",
			StaticDir: "static",
		},
		Auth:    Auth{SessionTTL: 12 * time.Hour},
		Catalog: Catalog{Backend: "memory"},
		Storage: Storage{Backend: "local", LocalDir: "uploads"},
		Images: Images{
			MaxImages: 5,
			MaxWidth:  1200,
			MaxHeight: 1200,
			Quality:   0.8,
		},
		Assistant: Assistant{Provider: "ollama"},
	}
}

// Load reads path when it is not empty, then applies environment overrides
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Server.Port, "STOREADMIN_PORT", "PORT")
	str(&c.Server.StaticDir, "STOREADMIN_STATIC_DIR")
	str(&c.Auth.AdminEmail, "STOREADMIN_ADMIN_EMAIL")
	str(&c.Auth.AdminPasswordHash, "STOREADMIN_ADMIN_PASSWORD_HASH")
	str(&c.Firebase.ProjectID, "STOREADMIN_FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	str(&c.Firebase.CredentialsFile, "STOREADMIN_FIREBASE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")
	str(&c.Firebase.StorageBucket, "STOREADMIN_FIREBASE_BUCKET")
	str(&c.Catalog.Backend, "STOREADMIN_CATALOG_BACKEND")
	str(&c.Storage.Backend, "STOREADMIN_STORAGE_BACKEND")
	str(&c.Storage.LocalDir, "STOREADMIN_STORAGE_DIR")
	str(&c.Storage.S3.Bucket, "STOREADMIN_S3_BUCKET")
	str(&c.Storage.S3.Region, "STOREADMIN_S3_REGION", "AWS_REGION")
	str(&c.Storage.S3.Endpoint, "STOREADMIN_S3_ENDPOINT")
	str(&c.Storage.S3.AccessKey, "STOREADMIN_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	str(&c.Storage.S3.SecretKey, "STOREADMIN_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	str(&c.Storage.S3.PublicBaseURL, "STOREADMIN_S3_PUBLIC_URL")
	str(&c.Assistant.Provider, "STOREADMIN_ASSISTANT_PROVIDER")
	str(&c.Assistant.Model, "STOREADMIN_ASSISTANT_MODEL")
	str(&c.Assistant.OllamaURL, "OLLAMA_URL", "OLLAMA_HOST")
	str(&c.Assistant.GeminiAPIKey, "GEMINI_API_KEY")
	str(&c.Assistant.OpenAIAPIKey, "OPENAI_API_KEY")

	if v, ok := lookup("STOREADMIN_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, origin)
			}
		}
	}
	if v, ok := lookup("STOREADMIN_MAX_IMAGES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STOREADMIN_MAX_IMAGES: %w", err)
		}
		c.Images.MaxImages = n
	}
	if v, ok := lookup("STOREADMIN_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STOREADMIN_SESSION_TTL: %w", err)
		}
		c.Auth.SessionTTL = d
	}
	return nil
}

// Validate checks that the selected backends have what they need
func (c Config) Validate() error {
	var errs []error
	switch c.Catalog.Backend {
	case "memory":
	case "firestore":
		if c.Firebase.ProjectID == "" && c.Firebase.CredentialsFile == "" {
			errs = append(errs, errors.New("catalog backend firestore needs firebase.project_id or credentials"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend))
	}

	switch c.Storage.Backend {
	case "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage backend local needs storage.local_dir"))
		}
	case "firebase":
		if c.Firebase.StorageBucket == "" {
			errs = append(errs, errors.New("storage backend firebase needs firebase.storage_bucket"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage backend s3 needs storage.s3.bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Images.MaxImages <= 0 {
		errs = append(errs, errors.New("images.max_images must be positive"))
	}
	if c.Images.Quality <= 0 || c.Images.Quality > 1 {
		errs = append(errs, errors.New("images.quality must be in (0, 1]"))
	}
	return errors.Join(errs...)
}
