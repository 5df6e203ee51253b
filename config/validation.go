package config

import (
	"fmt"
	"net"
	"net/mail"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Validate validates the configuration
func Validate(cfg Config) error {
	prod := cfg.App().IsProduction()

	if err := validateApp(cfg.App()); err != nil {
		return fmt.Errorf("app config validation failed: %w", err)
	}
	if err := validateServer(cfg.Server()); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateBackend(cfg.Backend(), prod); err != nil {
		return fmt.Errorf("backend config validation failed: %w", err)
	}
	if cfg.Backend().Provider() == BackendPostgres {
		if err := validateDatabase(cfg.Database()); err != nil {
			return fmt.Errorf("database config validation failed: %w", err)
		}
	}
	if err := validateCache(cfg.Cache(), prod); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}
	if cfg.Backend().Provider() == BackendRedis || cfg.Cache().Provider() == "redis" {
		if err := validateRedis(cfg.Redis()); err != nil {
			return fmt.Errorf("redis config validation failed: %w", err)
		}
	}
	if err := validateAuthz(cfg.Authz()); err != nil {
		return fmt.Errorf("authz config validation failed: %w", err)
	}
	if err := validateAudit(cfg.Audit()); err != nil {
		return fmt.Errorf("audit config validation failed: %w", err)
	}
	if err := validateLogger(cfg.Logger()); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}
	if err := validateUpload(cfg.Upload()); err != nil {
		return fmt.Errorf("upload config validation failed: %w", err)
	}
	if err := validateEmail(cfg.Email(), prod); err != nil {
		return fmt.Errorf("email config validation failed: %w", err)
	}
	if err := validateRPC(cfg.RPC()); err != nil {
		return fmt.Errorf("rpc config validation failed: %w", err)
	}
	return nil
}

func validateApp(cfg AppConfig) error {
	switch cfg.Environment() {
	case LocalEnv, DevelopmentEnv, ProductionEnv:
	default:
		return fmt.Errorf("ENV=%s is invalid, only accept `%s`, `%s`, `%s`", cfg.Environment(), LocalEnv, DevelopmentEnv, ProductionEnv)
	}

	if cfg.TokenIssuer() == "" {
		return fmt.Errorf("token_issuer is required")
	}
	if cfg.AccessTokenExpiresIn() <= 0 {
		return fmt.Errorf("access_token_expires_in must be positive")
	}
	if cfg.RefreshTokenExpiresIn() <= 0 {
		return fmt.Errorf("refresh_token_expires_in must be positive")
	}
	if cfg.AccessTokenExpiresIn() >= cfg.RefreshTokenExpiresIn() {
		return fmt.Errorf("access_token_expires_in must be less than refresh_token_expires_in")
	}

	if cfg.AccessTokenSecret() == "" {
		return fmt.Errorf("access token secret is required, please set ACCESS_TOKEN_SECRET env variable")
	}
	if cfg.IsProduction() && len(cfg.AccessTokenSecret()) < 32 {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be at least 32 characters in production")
	}

	if cfg.OwnerEmail() != "" {
		if _, err := mail.ParseAddress(cfg.OwnerEmail()); err != nil {
			return fmt.Errorf("owner_email is not a valid address: %w", err)
		}
		if cfg.OwnerPassword() != "" && len(cfg.OwnerPassword()) < 8 {
			return fmt.Errorf("OWNER_PASSWORD must be at least 8 characters")
		}
	}
	return nil
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host is required")
	}
	if host != "0.0.0.0" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("host must be a valid IP address or 'localhost'")
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func validateServer(cfg ServerConfig) error {
	if err := validateHost(cfg.Host()); err != nil {
		return err
	}
	if err := validatePort(cfg.Port()); err != nil {
		return err
	}
	if cfg.ReadTimeout() <= 0 || cfg.WriteTimeout() <= 0 {
		return fmt.Errorf("read_timeout and write_timeout must be positive")
	}
	if cfg.ShutdownTimeout() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if cfg.RateLimitRequests() <= 0 || cfg.RateLimitWindow() <= 0 {
		return fmt.Errorf("rate_limit_requests and rate_limit_window must be positive")
	}
	for _, origin := range cfg.AllowedOrigins() {
		if origin != "*" && !strings.HasPrefix(origin, "http") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}
	return nil
}

func validateBackend(cfg BackendConfig, prod bool) error {
	switch cfg.Provider() {
	case BackendPostgres, BackendRedis:
	case BackendMemory:
		if prod {
			return fmt.Errorf("backend provider 'memory' is not allowed in production")
		}
	default:
		return fmt.Errorf("backend provider must be one of: %s, %s, %s", BackendPostgres, BackendRedis, BackendMemory)
	}
	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("database host is required")
	}
	if port, err := strconv.Atoi(cfg.Port()); err != nil {
		return fmt.Errorf("database port must be numeric: %w", err)
	} else if err := validatePort(port); err != nil {
		return fmt.Errorf("database %w", err)
	}
	if cfg.User() == "" || cfg.Password() == "" || cfg.Name() == "" {
		return fmt.Errorf("database user, password and name are required")
	}

	if cfg.MaxOpenConns() <= 0 || cfg.MaxIdleConns() <= 0 {
		return fmt.Errorf("max_open_conns and max_idle_conns must be positive")
	}
	if cfg.MaxIdleConns() > cfg.MaxOpenConns() {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}
	if cfg.ConnMaxLifetime() <= 0 {
		return fmt.Errorf("conn_max_lifetime must be positive")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !lo.Contains(validSSLModes, cfg.SSLMode()) {
		return fmt.Errorf("ssl_mode must be one of: %s", strings.Join(validSSLModes, ", "))
	}

	validLogLevels := []string{"silent", "error", "warn", "info"}
	if cfg.EnableLog() && !lo.Contains(validLogLevels, cfg.LogLevel()) {
		return fmt.Errorf("database log_level must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("redis host is required")
	}
	if err := validatePort(cfg.Port()); err != nil {
		return fmt.Errorf("redis %w", err)
	}
	if cfg.DB() < 0 || cfg.DB() > 15 {
		return fmt.Errorf("redis db must be between 0 and 15")
	}
	if cfg.Prefix() == "" || strings.Contains(cfg.Prefix(), "*") {
		return fmt.Errorf("redis prefix is required and cannot contain '*'")
	}
	if cfg.PoolSize() <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}
	return nil
}

func validateCache(cfg CacheConfig, prod bool) error {
	switch cfg.Provider() {
	case "redis":
	case "memory":
		if prod {
			return fmt.Errorf("cache provider 'memory' is not allowed in production")
		}
	default:
		return fmt.Errorf("cache provider must be one of: redis, memory")
	}
	if cfg.DefaultTTL() <= 0 {
		return fmt.Errorf("default_ttl must be positive")
	}
	return nil
}

func validateAuthz(cfg AuthzConfig) error {
	if cfg.SnapshotTTL() <= 0 {
		return fmt.Errorf("snapshot_ttl must be positive")
	}
	if cfg.FetchTimeout() <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	if !strings.HasPrefix(cfg.LoginPath(), "/") || !strings.HasPrefix(cfg.HomePath(), "/") {
		return fmt.Errorf("login_path and home_path must be absolute paths")
	}
	if cfg.RetryAfter() < 0 {
		return fmt.Errorf("retry_after cannot be negative")
	}
	return nil
}

func validateAudit(cfg AuditConfig) error {
	if cfg.WriteTimeout() <= 0 {
		return fmt.Errorf("audit write_timeout must be positive")
	}
	for _, action := range cfg.AlertActions() {
		if action == "" || strings.ToUpper(action) != action {
			return fmt.Errorf("alert action %q must be an uppercase audit action", action)
		}
	}
	if len(cfg.AlertActions()) > 0 && len(cfg.AlertRecipients()) == 0 {
		return fmt.Errorf("alert_recipients is required when alert_actions is set")
	}
	for _, rcpt := range cfg.AlertRecipients() {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return fmt.Errorf("alert recipient %q is invalid: %w", rcpt, err)
		}
	}
	return nil
}

func validateLogger(cfg LoggerConfig) error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !lo.Contains(validLevels, cfg.Level()) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(validLevels, ", "))
	}
	if cfg.Format() != "json" && cfg.Format() != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}
	if cfg.OutputPath() == "" {
		return fmt.Errorf("output_path is required")
	}
	if cfg.MaxFileSizeMB() <= 0 || cfg.MaxFileAgeDays() <= 0 {
		return fmt.Errorf("max_file_size_mb and max_file_age_days must be positive")
	}
	if cfg.MaxBackupFiles() < 0 {
		return fmt.Errorf("max_backup_files cannot be negative")
	}
	return nil
}

func validateUpload(cfg UploadConfig) error {
	if cfg.MaxFileSize() <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}

	switch cfg.Provider() {
	case "local":
		if cfg.LocalDir() == "" {
			return fmt.Errorf("local_dir is required when provider is 'local'")
		}
	case "s3":
		if cfg.S3BucketName() == "" || cfg.S3Region() == "" {
			return fmt.Errorf("s3_bucket_name and s3_region are required when provider is 's3'")
		}
		if cfg.S3AccessKey() == "" || cfg.S3SecretKey() == "" {
			return fmt.Errorf("UPLOAD_S3_ACCESS_KEY and UPLOAD_S3_SECRET_KEY are required when provider is 's3'")
		}
		if cfg.S3EndpointURL() != "" && !strings.HasPrefix(cfg.S3EndpointURL(), "http") {
			return fmt.Errorf("s3 endpoint_url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("upload provider must be 's3' or 'local'")
	}
	return nil
}

func validateEmail(cfg EmailConfig, prod bool) error {
	if _, err := mail.ParseAddress(cfg.DefaultFrom()); err != nil {
		return fmt.Errorf("default_from is invalid: %w", err)
	}

	switch cfg.Provider() {
	case "ses":
		if cfg.SESRegion() == "" {
			return fmt.Errorf("ses_region is required when provider is 'ses'")
		}
	case "sendgrid":
		if cfg.SendGridAPIKey() == "" {
			return fmt.Errorf("EMAIL_SENDGRID_API_KEY is required when provider is 'sendgrid'")
		}
	case "mock":
		if prod {
			return fmt.Errorf("email provider 'mock' is not allowed in production")
		}
	default:
		return fmt.Errorf("email provider must be one of: ses, sendgrid, mock")
	}
	return nil
}

func validateRPC(cfg RPCConfig) error {
	if err := validateHost(cfg.Host()); err != nil {
		return fmt.Errorf("rpc %w", err)
	}
	if err := validatePort(cfg.Port()); err != nil {
		return fmt.Errorf("rpc %w", err)
	}
	return nil
}
