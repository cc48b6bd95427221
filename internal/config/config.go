package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Addr               string   `yaml:"addr"`
	BaseURL            string   `yaml:"base_url"`
	LogLevel           string   `yaml:"log_level"`
	LogJSON            bool     `yaml:"log_json"`
	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// TTLs are plain seconds because yaml.v2 cannot parse duration strings.
	JwtTTLSeconds               int `yaml:"jwt_ttl_seconds"`
	VerificationTokenTTLSeconds int `yaml:"verification_token_ttl_seconds"`
	ResetCodeTTLSeconds         int `yaml:"reset_code_ttl_seconds"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
	Pg     Pg     `yaml:"pg"`
	Email  Email  `yaml:"email"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

const (
	defaultJwtTTL               = 7 * 24 * time.Hour
	defaultVerificationTokenTTL = 24 * time.Hour
	defaultResetCodeTTL         = 10 * time.Minute
)

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	if c.Public.JwtTTLSeconds == 0 {
		return defaultJwtTTL
	}
	return time.Duration(c.Public.JwtTTLSeconds) * time.Second
}

func (c *Config) VerificationTokenTTL() time.Duration {
	if c.Public.VerificationTokenTTLSeconds == 0 {
		return defaultVerificationTokenTTL
	}
	return time.Duration(c.Public.VerificationTokenTTLSeconds) * time.Second
}

func (c *Config) ResetCodeTTL() time.Duration {
	if c.Public.ResetCodeTTLSeconds == 0 {
		return defaultResetCodeTTL
	}
	return time.Duration(c.Public.ResetCodeTTLSeconds) * time.Second
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.mustValidate()
	return cfg
}

func (c *Config) mustValidate() {
	if c.Public.Addr == "" {
		panic("config: addr is required")
	}
	if c.Public.BaseURL == "" {
		panic("config: base_url is required")
	}
	if c.Private.JwtKey == "" {
		panic("config: jwt_key is required")
	}
	if c.Private.Pg.Host == "" || c.Private.Pg.Dbname == "" {
		panic("config: pg host and dbname are required")
	}
}
