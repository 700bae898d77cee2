package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MemoryDSN selecciona el store in-memory (dev/tests).
const MemoryDSN = "memory"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Reports ReportsConfig `yaml:"reports"`
	Mail    MailConfig    `yaml:"mail"`
	AWS     AWSConfig     `yaml:"aws"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type AuthConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Si VerifyURL viene, las credenciales las valida un servicio de identidad externo.
	VerifyURL string `yaml:"verify_url"`
	APIKey    string `yaml:"api_key"`
}

type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
}

type ReportsConfig struct {
	Dir           string        `yaml:"dir"`
	ScratchDir    string        `yaml:"scratch_dir"`
	MaxRows       int           `yaml:"max_rows"`
	ExportMaxRows int           `yaml:"export_max_rows"`
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	StageTimeout  time.Duration `yaml:"stage_timeout"`
	Retention     time.Duration `yaml:"retention"`
	S3Bucket      string        `yaml:"s3_bucket"`
	S3Prefix      string        `yaml:"s3_prefix"`
}

type MailConfig struct {
	// ses | sendgrid | log
	Provider       string `yaml:"provider"`
	From           string `yaml:"from"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SendGridURL    string `yaml:"sendgrid_url"`
}

type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default devuelve la configuración base, antes de archivo y env.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:          4242,
			PublicBaseURL: "http://localhost:4242",
		},
		Auth: AuthConfig{
			User: "admin",
		},
		Reports: ReportsConfig{
			Dir:          "reports",
			ScratchDir:   os.TempDir(),
			MaxRows:      1000,
			Workers:      4,
			QueueSize:    64,
			StageTimeout: 2 * time.Minute,
			Retention:    24 * time.Hour,
			S3Prefix:     "reports/",
		},
		Mail: MailConfig{
			Provider:    "log",
			From:        "reports@localhost",
			SendGridURL: "https://api.sendgrid.com",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// Load arma la config en capas: defaults -> .env -> CONFIG_FILE (yaml) -> env vars.
// .env es opcional; si no existe se ignora.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalidConfig, key)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration", ErrInvalidConfig, key)
		}
		*dst = d
		return nil
	}

	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	str("PUBLIC_BASE_URL", &cfg.Server.PublicBaseURL)

	str("EXPORT_USER", &cfg.Auth.User)
	str("EXPORT_PASSWORD", &cfg.Auth.Password)
	str("AUTH_VERIFY_URL", &cfg.Auth.VerifyURL)
	str("AUTH_API_KEY", &cfg.Auth.APIKey)

	str("DATABASE_URL", &cfg.Storage.DatabaseURL)
	str("REDIS_URL", &cfg.Storage.RedisURL)

	str("REPORTS_DIR", &cfg.Reports.Dir)
	str("SCRATCH_DIR", &cfg.Reports.ScratchDir)
	str("REPORTS_S3_BUCKET", &cfg.Reports.S3Bucket)
	str("REPORTS_S3_PREFIX", &cfg.Reports.S3Prefix)
	for key, dst := range map[string]*int{
		"REPORT_MAX_ROWS":   &cfg.Reports.MaxRows,
		"EXPORT_MAX_ROWS":   &cfg.Reports.ExportMaxRows,
		"REPORT_WORKERS":    &cfg.Reports.Workers,
		"REPORT_QUEUE_SIZE": &cfg.Reports.QueueSize,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if err := dur("REPORT_STAGE_TIMEOUT", &cfg.Reports.StageTimeout); err != nil {
		return err
	}
	if err := dur("REPORT_RETENTION", &cfg.Reports.Retention); err != nil {
		return err
	}

	str("MAIL_PROVIDER", &cfg.Mail.Provider)
	str("MAIL_FROM", &cfg.Mail.From)
	str("SENDGRID_API_KEY", &cfg.Mail.SendGridAPIKey)
	str("SENDGRID_URL", &cfg.Mail.SendGridURL)

	str("AWS_REGION", &cfg.AWS.Region)
	str("AWS_ACCESS_KEY_ID", &cfg.AWS.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &cfg.AWS.SecretAccessKey)

	return nil
}

// Validate falla temprano: sin DATABASE_URL el proceso no arranca.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
		return fmt.Errorf("%w: DATABASE_URL must be set", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: PORT out of range", ErrInvalidConfig)
	}
	if c.Auth.VerifyURL != "" {
		if strings.TrimSpace(c.Auth.APIKey) == "" {
			return fmt.Errorf("%w: AUTH_API_KEY must be set with AUTH_VERIFY_URL", ErrInvalidConfig)
		}
	} else {
		if strings.TrimSpace(c.Auth.User) == "" {
			return fmt.Errorf("%w: EXPORT_USER must not be empty", ErrInvalidConfig)
		}
		if c.Storage.DatabaseURL != MemoryDSN && strings.TrimSpace(c.Auth.Password) == "" {
			return fmt.Errorf("%w: EXPORT_PASSWORD must be set", ErrInvalidConfig)
		}
	}
	if c.Reports.MaxRows < 0 || c.Reports.ExportMaxRows < 0 {
		return fmt.Errorf("%w: row limits must be >= 0", ErrInvalidConfig)
	}
	if c.Reports.Workers <= 0 || c.Reports.QueueSize <= 0 {
		return fmt.Errorf("%w: REPORT_WORKERS and REPORT_QUEUE_SIZE must be > 0", ErrInvalidConfig)
	}
	if c.Reports.StageTimeout <= 0 {
		return fmt.Errorf("%w: REPORT_STAGE_TIMEOUT must be > 0", ErrInvalidConfig)
	}
	switch c.Mail.Provider {
	case "log":
	case "ses":
	case "sendgrid":
		if strings.TrimSpace(c.Mail.SendGridAPIKey) == "" {
			return fmt.Errorf("%w: SENDGRID_API_KEY must be set for sendgrid", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown MAIL_PROVIDER %q", ErrInvalidConfig, c.Mail.Provider)
	}
	return nil
}

// Addr devuelve la dirección de escucha del servidor.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
