package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Jobs         JobsConfig
	Matching     MatchingConfig
	CheckCalls   CheckCallConfig
	Risk         RiskConfig
	Messaging    MessagingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOADPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"LOADPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOADPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOADPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOADPILOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOADPILOT_DB_DSN"`
	Driver string `envconfig:"LOADPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOADPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"LOADPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOADPILOT_DB_USER"`
	LegacyPassword string `envconfig:"LOADPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOADPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOADPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOADPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOADPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOADPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOADPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOADPILOT_REDIS_URL"`
	Address      string        `envconfig:"LOADPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"LOADPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOADPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOADPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOADPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOADPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOADPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOADPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOADPILOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOADPILOT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOADPILOT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LOADPILOT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOADPILOT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MessagingTopic      string `envconfig:"LOADPILOT_PUBSUB_MESSAGING_TOPIC" default:"lp-messaging-requests"`
	InboundTopic        string `envconfig:"LOADPILOT_PUBSUB_INBOUND_TOPIC" default:"lp-inbound-events"`
	InboundSubscription string `envconfig:"LOADPILOT_PUBSUB_INBOUND_SUBSCRIPTION" required:"true"`
}

// JobsConfig drives the typed cron job table: every job carries its own
// cadence and a lock TTL chosen to exceed its worst-case duration.
type JobsConfig struct {
	LockBackend       string        `envconfig:"LOADPILOT_CRON_LOCK_BACKEND" default:"postgres"`
	RiskSweepInterval time.Duration `envconfig:"LOADPILOT_JOB_RISK_SWEEP_INTERVAL" default:"5m"`
	RiskSweepTTL      time.Duration `envconfig:"LOADPILOT_JOB_RISK_SWEEP_TTL" default:"10m"`
	CheckCallInterval time.Duration `envconfig:"LOADPILOT_JOB_CHECK_CALL_INTERVAL" default:"5m"`
	CheckCallTTL      time.Duration `envconfig:"LOADPILOT_JOB_CHECK_CALL_TTL" default:"10m"`
	RetentionInterval time.Duration `envconfig:"LOADPILOT_JOB_RETENTION_INTERVAL" default:"24h"`
	RetentionTTL      time.Duration `envconfig:"LOADPILOT_JOB_RETENTION_TTL" default:"25h"`
	RetentionDays     int           `envconfig:"LOADPILOT_JOB_RETENTION_DAYS" default:"90"`
}

type MatchingConfig struct {
	MaxCandidates int `envconfig:"LOADPILOT_MATCHING_MAX_CANDIDATES" default:"10"`
	BackupOffers  int `envconfig:"LOADPILOT_MATCHING_BACKUP_OFFERS" default:"3"`
}

type CheckCallConfig struct {
	ResponseTimeout  time.Duration `envconfig:"LOADPILOT_CHECK_CALL_RESPONSE_TIMEOUT" default:"30m"`
	ExpeditedMinTier int           `envconfig:"LOADPILOT_CHECK_CALL_EXPEDITED_MIN_TIER" default:"4"`
}

type RiskConfig struct {
	AlertDedupWindow time.Duration `envconfig:"LOADPILOT_RISK_ALERT_DEDUP_WINDOW" default:"30m"`
}

type MessagingConfig struct {
	FromNumber string `envconfig:"LOADPILOT_MESSAGING_FROM_NUMBER"`
	FromEmail  string `envconfig:"LOADPILOT_MESSAGING_FROM_EMAIL"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
