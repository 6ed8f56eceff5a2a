package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams GeneralParams
	MainDBParams  MainDBParams
	AuthDBParams  AuthDBParams
	S3Params      S3Params
	CacheParams   CacheParams
}

type GeneralParams struct {
	Env             string
	SecretKey       string
	HTTPaddress     string
	LogLevel        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ShutdownTimeout time.Duration
}

type MainDBParams struct {
	Username string
	Password string
	Name     string
	Port     int
	Host     string
	Timeout  int
}

type AuthDBParams struct {
	Host     string
	Username string
	Password string
}

type S3Params struct {
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	RecordingsBucket string
	VoicesBucket     string
	PhotosBucket     string
}

type CacheParams struct {
	UserCacheSize int
	UserCacheTTL  time.Duration
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general_params.env", "dev")
	v.SetDefault("general_params.http_server_address", ":8080")
	v.SetDefault("general_params.log_level", "info")
	v.SetDefault("general_params.access_token_ttl", "15m")
	v.SetDefault("general_params.refresh_token_ttl", "168h")
	v.SetDefault("general_params.shutdown_timeout", "10s")
	v.SetDefault("main_db_params.db_port", 5432)
	v.SetDefault("main_db_params.db_timeout", 5)
	v.SetDefault("s3_params.recordings_bucket", "recordings")
	v.SetDefault("s3_params.voices_bucket", "voices")
	v.SetDefault("s3_params.photos_bucket", "photos")
	v.SetDefault("cache_params.user_cache_size", 1024)
	v.SetDefault("cache_params.user_cache_ttl", "1m")
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:             cm.v.GetString("general_params.env"),
			SecretKey:       cm.v.GetString("general_params.secret_key"),
			HTTPaddress:     cm.v.GetString("general_params.http_server_address"),
			LogLevel:        cm.v.GetString("general_params.log_level"),
			AccessTokenTTL:  cm.v.GetDuration("general_params.access_token_ttl"),
			RefreshTokenTTL: cm.v.GetDuration("general_params.refresh_token_ttl"),
			ShutdownTimeout: cm.v.GetDuration("general_params.shutdown_timeout"),
		},
		MainDBParams: MainDBParams{
			Username: cm.v.GetString("main_db_params.db_username"),
			Password: cm.v.GetString("main_db_params.db_password"),
			Name:     cm.v.GetString("main_db_params.db_name"),
			Port:     cm.v.GetInt("main_db_params.db_port"),
			Host:     cm.v.GetString("main_db_params.db_host"),
			Timeout:  cm.v.GetInt("main_db_params.db_timeout"),
		},
		AuthDBParams: AuthDBParams{
			Host:     cm.v.GetString("auth_db_params.db_host"),
			Username: cm.v.GetString("auth_db_params.db_username"),
			Password: cm.v.GetString("auth_db_params.db_password"),
		},
		S3Params: S3Params{
			Endpoint:         cm.v.GetString("s3_params.endpoint"),
			AccessKeyID:      cm.v.GetString("s3_params.access_key_id"),
			SecretAccessKey:  cm.v.GetString("s3_params.secret_access_key"),
			UseSSL:           cm.v.GetBool("s3_params.use_ssl"),
			RecordingsBucket: cm.v.GetString("s3_params.recordings_bucket"),
			VoicesBucket:     cm.v.GetString("s3_params.voices_bucket"),
			PhotosBucket:     cm.v.GetString("s3_params.photos_bucket"),
		},
		CacheParams: CacheParams{
			UserCacheSize: cm.v.GetInt("cache_params.user_cache_size"),
			UserCacheTTL:  cm.v.GetDuration("cache_params.user_cache_ttl"),
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Compiling a string to connect to main db
func (db *MainDBParams) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d&sslmode=disable",
		db.Username,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Timeout,
	)
}

// GetMigrateURL is the same DSN in the pgx5:// scheme golang-migrate expects
func (db *MainDBParams) GetMigrateURL() string {
	return "pgx5" + strings.TrimPrefix(db.GetDSN(), "postgres")
}

func (c *Config) Validate() error {
	// Checking secret key
	if c.GeneralParams.SecretKey == "" {
		return fmt.Errorf("parameter secret_key is required")
	}

	// Checking http address
	if c.GeneralParams.HTTPaddress == "" {
		return fmt.Errorf("parameter http_server_address is requred")
	}

	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	switch c.GeneralParams.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level is invalid: %s", c.GeneralParams.LogLevel)
	}

	if c.GeneralParams.AccessTokenTTL <= 0 || c.GeneralParams.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttl values must be positive")
	}
	if c.GeneralParams.AccessTokenTTL >= c.GeneralParams.RefreshTokenTTL {
		return fmt.Errorf("access_token_ttl must be shorter than refresh_token_ttl")
	}

	// Checking MainDbparams
	if c.MainDBParams.Host == "" {
		return fmt.Errorf("MainDB: host is required")
	}
	if c.MainDBParams.Username == "" {
		return fmt.Errorf("MainDB: username is required")
	}
	if c.MainDBParams.Password == "" {
		return fmt.Errorf("MainDB: password is requred")
	}
	if c.MainDBParams.Name == "" {
		return fmt.Errorf("MainDB: name is required")
	}
	if c.MainDBParams.Port <= 0 || c.MainDBParams.Port > 65535 {
		return fmt.Errorf("MainDB: port is invalid")
	}

	// Checking AuthDbParams
	if c.AuthDBParams.Host == "" {
		return fmt.Errorf("AuthDB: host is required")
	}

	// Checking S3 params
	if c.S3Params.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if c.S3Params.AccessKeyID == "" {
		return fmt.Errorf("S3 access_key id is required")
	}
	if c.S3Params.SecretAccessKey == "" {
		return fmt.Errorf("S3 secret_access_key is required")
	}
	for name, bucket := range map[string]string{
		"recordings_bucket": c.S3Params.RecordingsBucket,
		"voices_bucket":     c.S3Params.VoicesBucket,
		"photos_bucket":     c.S3Params.PhotosBucket,
	} {
		if bucket == "" {
			return fmt.Errorf("S3 %s is required", name)
		}
	}

	if c.CacheParams.UserCacheSize <= 0 {
		return fmt.Errorf("user_cache_size must be positive")
	}

	return nil
}
