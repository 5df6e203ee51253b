package config

import (
	"fmt"
	"time"
)

const (
	LocalEnv       = "local"
	DevelopmentEnv = "dev"
	ProductionEnv  = "prod"
)

type Config interface {
	App() AppConfig
	Server() ServerConfig
	Database() DatabaseConfig
	Redis() RedisConfig
	Cache() CacheConfig
	Backend() BackendConfig
	Authz() AuthzConfig
	Audit() AuditConfig
	Logger() LoggerConfig
	Upload() UploadConfig
	Email() EmailConfig
	RPC() RPCConfig
}

type AppConfig interface {
	Name() string
	Version() string
	Environment() string
	IsProduction() bool
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	RefreshTokenExpiresIn() time.Duration
	TokenIssuer() string
	OwnerEmail() string
	OwnerPassword() string
	OwnerFullName() string
}

type ServerConfig interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	IdleTimeout() time.Duration
	ShutdownTimeout() time.Duration
	MaxHeaderBytes() int
	AllowedOrigins() []string
	RateLimitRequests() int
	RateLimitWindow() time.Duration
}

type DatabaseConfig interface {
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	LogLevel() string
	EnableLog() bool
	AutoMigrate() bool
}

type RedisConfig interface {
	Host() string
	Port() int
	Addr() string
	Password() string
	DB() int
	Prefix() string
	PoolSize() int
	MinIdleConns() int
	DialTimeout() time.Duration
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
}

type CacheConfig interface {
	Provider() string
	DefaultTTL() time.Duration
}

// BackendConfig selects the store behind every repository.
type BackendConfig interface {
	Provider() string
}

type AuthzConfig interface {
	SnapshotTTL() time.Duration
	FetchTimeout() time.Duration
	LoginPath() string
	HomePath() string
	RetryAfter() time.Duration
}

type AuditConfig interface {
	WriteTimeout() time.Duration
	AlertActions() []string
	AlertRecipients() []string
}

type LoggerConfig interface {
	Level() string
	Format() string
	OutputPath() string
	MaxFileSizeMB() int
	MaxFileAgeDays() int
	MaxBackupFiles() int
	IsCompressEnabled() bool
}

type UploadConfig interface {
	Provider() string
	LocalDir() string
	PublicURL() string
	MaxFileSize() int64
	S3EndpointURL() string
	S3BucketName() string
	S3PathPrefix() string
	S3Region() string
	S3AccessKey() string
	S3SecretKey() string
}

type EmailConfig interface {
	Provider() string
	DefaultFrom() string
	FromName() string
	SESRegion() string
	SESAccessKey() string
	SESSecretKey() string
	SESConfigurationSet() string
	SendGridAPIKey() string
}

type RPCConfig interface {
	Host() string
	Port() int
	Address() string
}

// config holds the actual configuration implementation
type config struct {
	AppCfg      appConfig      `yaml:"app"`
	ServerCfg   serverConfig   `yaml:"server"`
	DatabaseCfg databaseConfig `yaml:"database"`
	RedisCfg    redisConfig    `yaml:"redis"`
	CacheCfg    cacheConfig    `yaml:"cache"`
	BackendCfg  backendConfig  `yaml:"backend"`
	AuthzCfg    authzConfig    `yaml:"authz"`
	AuditCfg    auditConfig    `yaml:"audit"`
	LoggerCfg   loggerConfig   `yaml:"logger"`
	UploadCfg   uploadConfig   `yaml:"upload"`
	EmailCfg    emailConfig    `yaml:"email"`
	RPCCfg      rpcConfig      `yaml:"rpc"`
}

func (c *config) App() AppConfig           { return &c.AppCfg }
func (c *config) Server() ServerConfig     { return &c.ServerCfg }
func (c *config) Database() DatabaseConfig { return &c.DatabaseCfg }
func (c *config) Redis() RedisConfig       { return &c.RedisCfg }
func (c *config) Cache() CacheConfig       { return &c.CacheCfg }
func (c *config) Backend() BackendConfig   { return &c.BackendCfg }
func (c *config) Authz() AuthzConfig       { return &c.AuthzCfg }
func (c *config) Audit() AuditConfig       { return &c.AuditCfg }
func (c *config) Logger() LoggerConfig     { return &c.LoggerCfg }
func (c *config) Upload() UploadConfig     { return &c.UploadCfg }
func (c *config) Email() EmailConfig       { return &c.EmailCfg }
func (c *config) RPC() RPCConfig           { return &c.RPCCfg }

type appConfig struct {
	NameStr        string `yaml:"name" env-default:"bill-tracker"`
	VersionStr     string `yaml:"version" env-default:"0.0.0"`
	EnvironmentStr string `env:"ENV" env-default:"local"`

	TokenIssuerStr string `yaml:"token_issuer" env-default:"bill-tracker"`

	AccessTokenExpiresInDur  time.Duration `yaml:"access_token_expires_in" env-default:"15m"`
	AccessTokenSecretStr     string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenExpiresInDur time.Duration `yaml:"refresh_token_expires_in" env-default:"720h"`

	OwnerEmailStr    string `yaml:"owner_email" env:"OWNER_EMAIL"`
	OwnerPasswordStr string `env:"OWNER_PASSWORD"`
	OwnerFullNameStr string `yaml:"owner_full_name" env-default:"Owner"`
}

func (c *appConfig) Name() string        { return c.NameStr }
func (c *appConfig) Version() string     { return c.VersionStr }
func (c *appConfig) Environment() string { return c.EnvironmentStr }
func (c *appConfig) IsProduction() bool  { return c.EnvironmentStr == ProductionEnv }

func (c *appConfig) AccessTokenExpiresIn() time.Duration {
	return c.AccessTokenExpiresInDur
}

func (c *appConfig) AccessTokenSecret() string {
	return c.AccessTokenSecretStr
}

func (c *appConfig) RefreshTokenExpiresIn() time.Duration {
	return c.RefreshTokenExpiresInDur
}

func (c *appConfig) TokenIssuer() string   { return c.TokenIssuerStr }
func (c *appConfig) OwnerEmail() string    { return c.OwnerEmailStr }
func (c *appConfig) OwnerPassword() string { return c.OwnerPasswordStr }
func (c *appConfig) OwnerFullName() string { return c.OwnerFullNameStr }

type serverConfig struct {
	HostStr              string        `yaml:"host" env-default:"0.0.0.0"`
	PortInt              int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeoutDur       time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeoutDur      time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeoutDur       time.Duration `yaml:"idle_timeout" env-default:"120s"`
	ShutdownTimeoutDur   time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	MaxHeaderBytesInt    int           `yaml:"max_header_bytes" env-default:"1048576"`
	AllowedOriginsArr    []string      `yaml:"allowed_origins"`
	RateLimitRequestsInt int           `yaml:"rate_limit_requests" env-default:"20"`
	RateLimitWindowDur   time.Duration `yaml:"rate_limit_window" env-default:"1m"`
}

func (s *serverConfig) Host() string                   { return s.HostStr }
func (s *serverConfig) Port() int                      { return s.PortInt }
func (s *serverConfig) Address() string                { return fmt.Sprintf("%s:%d", s.HostStr, s.PortInt) }
func (s *serverConfig) ReadTimeout() time.Duration     { return s.ReadTimeoutDur }
func (s *serverConfig) WriteTimeout() time.Duration    { return s.WriteTimeoutDur }
func (s *serverConfig) IdleTimeout() time.Duration     { return s.IdleTimeoutDur }
func (s *serverConfig) ShutdownTimeout() time.Duration { return s.ShutdownTimeoutDur }
func (s *serverConfig) MaxHeaderBytes() int            { return s.MaxHeaderBytesInt }
func (s *serverConfig) AllowedOrigins() []string       { return s.AllowedOriginsArr }
func (s *serverConfig) RateLimitRequests() int         { return s.RateLimitRequestsInt }
func (s *serverConfig) RateLimitWindow() time.Duration { return s.RateLimitWindowDur }

type databaseConfig struct {
	HostStr            string        `env:"POSTGRES_HOST" env-default:"localhost"`
	PortStr            string        `env:"POSTGRES_PORT" env-default:"5432"`
	UserStr            string        `env:"POSTGRES_USER" env-default:"postgres"`
	PasswordStr        string        `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	NameStr            string        `env:"POSTGRES_DBNAME" env-default:"bill_tracker"`
	SSLModeStr         string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxOpenConnsInt    int           `yaml:"max_open_conns" env-default:"25"`
	MaxIdleConnsInt    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetimeDur time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	EnableLoggingBool  bool          `yaml:"enable_logging" env-default:"false"`
	LogLevelStr        string        `yaml:"log_level" env-default:"warn"`
	AutoMigrateBool    bool          `yaml:"auto_migrate" env-default:"true"`
}

func (d *databaseConfig) Host() string                   { return d.HostStr }
func (d *databaseConfig) Port() string                   { return d.PortStr }
func (d *databaseConfig) User() string                   { return d.UserStr }
func (d *databaseConfig) Password() string               { return d.PasswordStr }
func (d *databaseConfig) Name() string                   { return d.NameStr }
func (d *databaseConfig) SSLMode() string                { return d.SSLModeStr }
func (d *databaseConfig) MaxOpenConns() int              { return d.MaxOpenConnsInt }
func (d *databaseConfig) MaxIdleConns() int              { return d.MaxIdleConnsInt }
func (d *databaseConfig) ConnMaxLifetime() time.Duration { return d.ConnMaxLifetimeDur }
func (d *databaseConfig) EnableLog() bool                { return d.EnableLoggingBool }
func (d *databaseConfig) LogLevel() string               { return d.LogLevelStr }
func (d *databaseConfig) AutoMigrate() bool              { return d.AutoMigrateBool }

type redisConfig struct {
	HostStr         string        `env:"REDIS_HOST" env-default:"localhost"`
	PortInt         int           `env:"REDIS_PORT" env-default:"6379"`
	PasswordStr     string        `env:"REDIS_PASSWORD"`
	DBInt           int           `env:"REDIS_DB" env-default:"0"`
	PrefixStr       string        `yaml:"prefix" env-default:"bt"`
	PoolSizeInt     int           `yaml:"pool_size" env-default:"10"`
	MinIdleConnsInt int           `yaml:"min_idle_conns" env-default:"2"`
	DialTimeoutDur  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	ReadTimeoutDur  time.Duration `yaml:"read_timeout" env-default:"3s"`
	WriteTimeoutDur time.Duration `yaml:"write_timeout" env-default:"3s"`
}

func (r *redisConfig) Host() string                { return r.HostStr }
func (r *redisConfig) Port() int                   { return r.PortInt }
func (r *redisConfig) Addr() string                { return fmt.Sprintf("%s:%d", r.HostStr, r.PortInt) }
func (r *redisConfig) Password() string            { return r.PasswordStr }
func (r *redisConfig) DB() int                     { return r.DBInt }
func (r *redisConfig) Prefix() string              { return r.PrefixStr }
func (r *redisConfig) PoolSize() int               { return r.PoolSizeInt }
func (r *redisConfig) MinIdleConns() int           { return r.MinIdleConnsInt }
func (r *redisConfig) DialTimeout() time.Duration  { return r.DialTimeoutDur }
func (r *redisConfig) ReadTimeout() time.Duration  { return r.ReadTimeoutDur }
func (r *redisConfig) WriteTimeout() time.Duration { return r.WriteTimeoutDur }

type cacheConfig struct {
	ProviderStr   string        `yaml:"provider" env:"CACHE_PROVIDER" env-default:"redis"`
	DefaultTTLDur time.Duration `yaml:"default_ttl" env-default:"10m"`
}

func (c *cacheConfig) Provider() string          { return c.ProviderStr }
func (c *cacheConfig) DefaultTTL() time.Duration { return c.DefaultTTLDur }

type backendConfig struct {
	ProviderStr string `yaml:"provider" env:"BACKEND_PROVIDER" env-default:"postgres"`
}

func (b *backendConfig) Provider() string { return b.ProviderStr }

type authzConfig struct {
	SnapshotTTLDur  time.Duration `yaml:"snapshot_ttl" env-default:"10m"`
	FetchTimeoutDur time.Duration `yaml:"fetch_timeout" env-default:"3s"`
	LoginPathStr    string        `yaml:"login_path" env-default:"/login"`
	HomePathStr     string        `yaml:"home_path" env-default:"/"`
	RetryAfterDur   time.Duration `yaml:"retry_after" env-default:"1s"`
}

func (a *authzConfig) SnapshotTTL() time.Duration  { return a.SnapshotTTLDur }
func (a *authzConfig) FetchTimeout() time.Duration { return a.FetchTimeoutDur }
func (a *authzConfig) LoginPath() string           { return a.LoginPathStr }
func (a *authzConfig) HomePath() string            { return a.HomePathStr }
func (a *authzConfig) RetryAfter() time.Duration   { return a.RetryAfterDur }

type auditConfig struct {
	WriteTimeoutDur    time.Duration `yaml:"write_timeout" env-default:"5s"`
	AlertActionsArr    []string      `yaml:"alert_actions"`
	AlertRecipientsArr []string      `yaml:"alert_recipients" env:"AUDIT_ALERT_RECIPIENTS" env-separator:","`
}

func (a *auditConfig) WriteTimeout() time.Duration { return a.WriteTimeoutDur }
func (a *auditConfig) AlertActions() []string      { return a.AlertActionsArr }
func (a *auditConfig) AlertRecipients() []string   { return a.AlertRecipientsArr }

type loggerConfig struct {
	LevelStr          string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatStr         string `yaml:"format" env-default:"console"`
	OutputPathStr     string `yaml:"output_path" env-default:"stdout"`
	MaxFileSizeMBInt  int    `yaml:"max_file_size_mb" env-default:"100"`
	MaxFileAgeDaysInt int    `yaml:"max_file_age_days" env-default:"7"`
	MaxBackupFilesInt int    `yaml:"max_backup_files" env-default:"5"`
	EnableCompressed  bool   `yaml:"enable_compressed" env-default:"true"`
}

func (l *loggerConfig) Level() string           { return l.LevelStr }
func (l *loggerConfig) Format() string          { return l.FormatStr }
func (l *loggerConfig) OutputPath() string      { return l.OutputPathStr }
func (l *loggerConfig) MaxFileSizeMB() int      { return l.MaxFileSizeMBInt }
func (l *loggerConfig) MaxFileAgeDays() int     { return l.MaxFileAgeDaysInt }
func (l *loggerConfig) MaxBackupFiles() int     { return l.MaxBackupFilesInt }
func (l *loggerConfig) IsCompressEnabled() bool { return l.EnableCompressed }

type uploadConfig struct {
	ProviderStr      string `yaml:"provider" env-default:"local"`
	LocalDirStr      string `yaml:"local_dir" env-default:"./uploads"`
	PublicURLStr     string `yaml:"public_url" env-default:"/uploads/"`
	MaxFileSizeInt   int64  `yaml:"max_file_size" env-default:"5242880"`
	S3EndpointURLStr string `yaml:"s3_endpoint_url"`
	S3BucketNameStr  string `yaml:"s3_bucket_name"`
	S3PathPrefixStr  string `yaml:"s3_path_prefix" env-default:"avatars"`
	S3RegionStr      string `yaml:"s3_region"`
	S3AccessKeyStr   string `env:"UPLOAD_S3_ACCESS_KEY" env-default:""`
	S3SecretKeyStr   string `env:"UPLOAD_S3_SECRET_KEY" env-default:""`
}

func (c *uploadConfig) Provider() string      { return c.ProviderStr }
func (c *uploadConfig) LocalDir() string      { return c.LocalDirStr }
func (c *uploadConfig) PublicURL() string     { return c.PublicURLStr }
func (c *uploadConfig) MaxFileSize() int64    { return c.MaxFileSizeInt }
func (c *uploadConfig) S3EndpointURL() string { return c.S3EndpointURLStr }
func (c *uploadConfig) S3BucketName() string  { return c.S3BucketNameStr }
func (c *uploadConfig) S3PathPrefix() string  { return c.S3PathPrefixStr }
func (c *uploadConfig) S3Region() string      { return c.S3RegionStr }
func (c *uploadConfig) S3AccessKey() string   { return c.S3AccessKeyStr }
func (c *uploadConfig) S3SecretKey() string   { return c.S3SecretKeyStr }

type emailConfig struct {
	ProviderStr            string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"mock"`
	DefaultFromStr         string `yaml:"default_from" env-default:"no-reply@bill-tracker.local"`
	FromNameStr            string `yaml:"from_name" env-default:"Bill Tracker"`
	SESRegionStr           string `yaml:"ses_region"`
	SESAccessKeyStr        string `env:"EMAIL_SES_ACCESS_KEY"`
	SESSecretKeyStr        string `env:"EMAIL_SES_SECRET_KEY"`
	SESConfigurationSetStr string `yaml:"ses_configuration_set"`
	SendGridAPIKeyStr      string `env:"EMAIL_SENDGRID_API_KEY"`
}

func (e *emailConfig) Provider() string            { return e.ProviderStr }
func (e *emailConfig) DefaultFrom() string         { return e.DefaultFromStr }
func (e *emailConfig) FromName() string            { return e.FromNameStr }
func (e *emailConfig) SESRegion() string           { return e.SESRegionStr }
func (e *emailConfig) SESAccessKey() string        { return e.SESAccessKeyStr }
func (e *emailConfig) SESSecretKey() string        { return e.SESSecretKeyStr }
func (e *emailConfig) SESConfigurationSet() string { return e.SESConfigurationSetStr }
func (e *emailConfig) SendGridAPIKey() string      { return e.SendGridAPIKeyStr }

type rpcConfig struct {
	HostStr string `yaml:"host" env-default:"0.0.0.0"`
	PortInt int    `yaml:"port" env:"RPC_PORT" env-default:"9090"`
}

func (r *rpcConfig) Host() string    { return r.HostStr }
func (r *rpcConfig) Port() int       { return r.PortInt }
func (r *rpcConfig) Address() string { return fmt.Sprintf("%s:%d", r.HostStr, r.PortInt) }
