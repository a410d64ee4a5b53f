package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "EVENTDESK"

var (
	errMissingSigningKey = errors.New("api.jwt_signing_key is required")
	errInvalidBucketMode = errors.New("participants.withdrawn_bucket must be merged or separate")
)

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	Participants *ParticipantsConfig `mapstructure:"participants"`
	Email        *EmailConfig        `mapstructure:"email"`
	Storage      *StorageConfig      `mapstructure:"storage"`
	Contact      *ContactConfig      `mapstructure:"contact"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	AllowAdminSignup   bool          `mapstructure:"allow_admin_signup"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	Migrate  bool   `mapstructure:"migrate"`
}

// URL renders the connection settings as a postgres:// URL, the form
// accepted by both gorm and golang-migrate.
func (c *PostgresConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.DB,
		RawQuery: "sslmode=" + c.SSLMode,
	}

	return u.String()
}

// ParticipantPolicy is the hot-reloadable part of the participants section.
type ParticipantPolicy struct {
	RejectCutoff    time.Duration `mapstructure:"reject_cutoff"`
	WithdrawCutoff  time.Duration `mapstructure:"withdraw_cutoff"`
	WithdrawnBucket string        `mapstructure:"withdrawn_bucket"`
	SweepMaxRounds  int           `mapstructure:"sweep_max_rounds"`
}

type ParticipantsConfig struct {
	mu     sync.RWMutex
	policy ParticipantPolicy
}

func NewParticipantsConfig(p ParticipantPolicy) *ParticipantsConfig {
	return &ParticipantsConfig{policy: p}
}

func (c *ParticipantsConfig) Policy() ParticipantPolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.policy
}

func (c *ParticipantsConfig) set(p ParticipantPolicy) {
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
}

type EmailConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	ServiceID   string        `mapstructure:"service_id"`
	TemplateID  string        `mapstructure:"template_id"`
	UserID      string        `mapstructure:"user_id"`
	AccessToken string        `mapstructure:"access_token"`
	FromName    string        `mapstructure:"from_name"`
	Locale      string        `mapstructure:"locale"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxRetries  uint64        `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

func (c *StorageConfig) Enabled() bool {
	return c != nil && strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

type ContactConfig struct {
	AdminEmail string `mapstructure:"admin_email"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.token_ttl", 24*time.Hour)
	v.SetDefault("api.allow_admin_signup", false)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("participants.reject_cutoff", 12*time.Hour)
	v.SetDefault("participants.withdraw_cutoff", 12*time.Hour)
	v.SetDefault("participants.withdrawn_bucket", "merged")
	v.SetDefault("participants.sweep_max_rounds", 5)
	v.SetDefault("email.endpoint", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("email.from_name", "Event Organizer")
	v.SetDefault("email.locale", "en")
	v.SetDefault("email.concurrency", 4)
	v.SetDefault("email.max_retries", 2)
	v.SetDefault("email.timeout", 10*time.Second)
}

// Load reads the YAML file at path, applies EVENTDESK_* environment
// overrides and starts watching the file for participant policy changes.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		policy, err := decodePolicy(v)
		if err != nil {
			zap.L().Warn("ignoring participant policy reload", zap.String("file", e.Name), zap.Error(err))
			return
		}
		conf.Participants.set(policy)
		zap.L().Info("participant policy reloaded", zap.String("file", e.Name), zap.Any("policy", policy))
	})
	v.WatchConfig()

	return conf, nil
}

// settings mirrors the file layout. It is decoded with v.Unmarshal, which
// unlike UnmarshalKey sees EVENTDESK_* overrides of nested keys.
type settings struct {
	API          APIConfig         `mapstructure:"api"`
	Gin          GinConfig         `mapstructure:"gin"`
	Postgres     PostgresConfig    `mapstructure:"postgres"`
	Participants ParticipantPolicy `mapstructure:"participants"`
	Email        EmailConfig       `mapstructure:"email"`
	Storage      StorageConfig     `mapstructure:"storage"`
	Contact      ContactConfig     `mapstructure:"contact"`
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var raw settings
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	policy, err := checkPolicy(raw.Participants)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw.API.JWTSigningKey) == "" {
		return nil, errMissingSigningKey
	}

	return &AppConfig{
		API:          &raw.API,
		Gin:          &raw.Gin,
		Postgres:     &raw.Postgres,
		Participants: NewParticipantsConfig(policy),
		Email:        &raw.Email,
		Storage:      &raw.Storage,
		Contact:      &raw.Contact,
	}, nil
}

func decodePolicy(v *viper.Viper) (ParticipantPolicy, error) {
	var raw settings
	if err := v.Unmarshal(&raw); err != nil {
		return ParticipantPolicy{}, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	return checkPolicy(raw.Participants)
}

func checkPolicy(policy ParticipantPolicy) (ParticipantPolicy, error) {
	switch policy.WithdrawnBucket {
	case "merged", "separate":
	default:
		return ParticipantPolicy{}, errInvalidBucketMode
	}

	if policy.SweepMaxRounds < 1 {
		policy.SweepMaxRounds = 1
	}

	return policy, nil
}
