package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the workdesk service.
//
// Values come from an optional YAML file (WORKDESK_CONFIG_FILE) overlaid by
// WORKDESK_* environment variables; the environment always wins.
type Config struct {
	HTTPPort       int
	Mode           string
	SQLitePath     string
	DataDir        string
	SessionSecret  string
	SessionTTL     time.Duration
	MailEndpoint   string
	MailAPIKey     string
	MailFrom       string
	GeocodeBaseURL string
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings so
// "24h" style values parse.
type fileConfig struct {
	HTTPPort       *int    `yaml:"http_port"`
	Mode           *string `yaml:"mode"`
	SQLitePath     *string `yaml:"sqlite_path"`
	DataDir        *string `yaml:"data_dir"`
	SessionSecret  *string `yaml:"session_secret"`
	SessionTTL     *string `yaml:"session_ttl"`
	MailEndpoint   *string `yaml:"mail_endpoint"`
	MailAPIKey     *string `yaml:"mail_api_key"`
	MailFrom       *string `yaml:"mail_from"`
	GeocodeBaseURL *string `yaml:"geocode_base_url"`
}

// Modes accepted by Config.Mode.
const (
	ModeSQLite = "sqlite"
	ModeMemory = "memory"
)

// Load parses configuration from the optional YAML file and the process
// environment, applying defaults for everything but the session secret.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		Mode:           ModeSQLite,
		SQLitePath:     "workdesk.db",
		DataDir:        "data",
		SessionTTL:     24 * time.Hour,
		MailEndpoint:   "https://api.resend.com/emails",
		GeocodeBaseURL: "https://nominatim.openstreetmap.org",
	}

	if path := strings.TrimSpace(os.Getenv("WORKDESK_CONFIG_FILE")); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("WORKDESK_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "WORKDESK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if mode := strings.TrimSpace(os.Getenv("WORKDESK_MODE")); mode != "" {
		cfg.Mode = mode
	}
	if cfg.Mode != ModeSQLite && cfg.Mode != ModeMemory {
		invalid = append(invalid, "WORKDESK_MODE")
	}

	if path := strings.TrimSpace(os.Getenv("WORKDESK_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}
	if dir := strings.TrimSpace(os.Getenv("WORKDESK_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}

	if secret := strings.TrimSpace(os.Getenv("WORKDESK_SESSION_SECRET")); secret != "" {
		cfg.SessionSecret = secret
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "WORKDESK_SESSION_SECRET")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("WORKDESK_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "WORKDESK_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if endpoint := strings.TrimSpace(os.Getenv("WORKDESK_MAIL_ENDPOINT")); endpoint != "" {
		cfg.MailEndpoint = endpoint
	}
	if key := strings.TrimSpace(os.Getenv("WORKDESK_MAIL_API_KEY")); key != "" {
		cfg.MailAPIKey = key
	}
	if from := strings.TrimSpace(os.Getenv("WORKDESK_MAIL_FROM")); from != "" {
		cfg.MailFrom = from
	}
	if base := strings.TrimSpace(os.Getenv("WORKDESK_GEOCODE_BASE_URL")); base != "" {
		cfg.GeocodeBaseURL = base
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("설정 파일을 찾을 수 없습니다: %s", path)
		}
		return err
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("설정 파일을 해석할 수 없습니다: %w", err)
	}

	if file.HTTPPort != nil {
		cfg.HTTPPort = *file.HTTPPort
	}
	if file.Mode != nil {
		cfg.Mode = *file.Mode
	}
	if file.SQLitePath != nil {
		cfg.SQLitePath = *file.SQLitePath
	}
	if file.DataDir != nil {
		cfg.DataDir = *file.DataDir
	}
	if file.SessionSecret != nil {
		cfg.SessionSecret = *file.SessionSecret
	}
	if file.SessionTTL != nil {
		ttl, err := time.ParseDuration(*file.SessionTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("설정 파일의 session_ttl 값이 올바르지 않습니다: %q", *file.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if file.MailEndpoint != nil {
		cfg.MailEndpoint = *file.MailEndpoint
	}
	if file.MailAPIKey != nil {
		cfg.MailAPIKey = *file.MailAPIKey
	}
	if file.MailFrom != nil {
		cfg.MailFrom = *file.MailFrom
	}
	if file.GeocodeBaseURL != nil {
		cfg.GeocodeBaseURL = *file.GeocodeBaseURL
	}
	return nil
}
