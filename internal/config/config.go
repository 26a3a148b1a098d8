package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	catalogURLFormat = "https://cf.biwenger.com/api/v2/competitions/%s/data?lang=es&score=2"
)

// Config stores runtime configuration for the API and the CLI.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	LogFormat          logging.Format
	CORSAllowedOrigins []string
	InternalJobToken   string

	BiwengerEmail                 string
	BiwengerPassword              string
	BiwengerLeagueID              string
	BiwengerUserID                string
	BiwengerBaseURL               string
	BiwengerCatalogURL            string
	BiwengerCompetition           string
	BiwengerTimeout               time.Duration
	BiwengerCircuitEnabled        bool
	BiwengerCircuitFailureCount   int
	BiwengerCircuitOpenTimeout    time.Duration
	BiwengerCircuitHalfOpenMaxReq int

	BoardLimit        int
	OwnerFetchWorkers int
	OwnerFetchTimeout time.Duration
	RefreshTimeout    time.Duration
	LeagueLocation    *time.Location
	RefreshSchedule   string
	ClauseWindow      time.Duration
	ClauseWindowSkew  time.Duration
	ClauseCap         int
	ServeStale        bool

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	UptraceEnabled             bool
	UptraceDSN                 string
}

// Load reads the process environment, after merging an optional .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "60s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "clause-watch"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:          logging.ParseFormat(getEnv("APP_LOG_FORMAT", string(logging.FormatJSON))),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if err := loadBiwenger(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadPipeline(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadCache(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadBiwenger(cfg *Config) error {
	cfg.BiwengerEmail = strings.TrimSpace(getEnv("BIWENGER_EMAIL", ""))
	cfg.BiwengerPassword = getEnv("BIWENGER_PASSWORD", "")
	cfg.BiwengerLeagueID = strings.TrimSpace(getEnv("BIWENGER_LEAGUE_ID", ""))
	cfg.BiwengerUserID = strings.TrimSpace(getEnv("BIWENGER_USER_ID", ""))
	cfg.BiwengerBaseURL = strings.TrimSpace(getEnv("BIWENGER_BASE_URL", "https://biwenger.as.com/api/v2"))
	cfg.BiwengerCompetition = strings.TrimSpace(getEnv("BIWENGER_COMPETITION", "la-liga"))
	cfg.BiwengerCatalogURL = strings.TrimSpace(getEnv("BIWENGER_CATALOG_URL", fmt.Sprintf(catalogURLFormat, cfg.BiwengerCompetition)))

	if cfg.BiwengerEmail == "" || cfg.BiwengerPassword == "" {
		return fmt.Errorf("BIWENGER_EMAIL and BIWENGER_PASSWORD are required")
	}
	if err := requirePositiveID("BIWENGER_LEAGUE_ID", cfg.BiwengerLeagueID); err != nil {
		return err
	}
	if err := requirePositiveID("BIWENGER_USER_ID", cfg.BiwengerUserID); err != nil {
		return err
	}

	timeout, err := getEnvAsPositiveDuration("BIWENGER_TIMEOUT", "20s")
	if err != nil {
		return err
	}
	cfg.BiwengerTimeout = timeout

	circuitEnabled, err := strconv.ParseBool(getEnv("BIWENGER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse BIWENGER_CIRCUIT_ENABLED: %w", err)
	}
	failureCount, err := getEnvAsInt("BIWENGER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse BIWENGER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("BIWENGER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	openTimeout, err := getEnvAsPositiveDuration("BIWENGER_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return err
	}
	halfOpenMaxReq, err := getEnvAsInt("BIWENGER_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return fmt.Errorf("parse BIWENGER_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if halfOpenMaxReq < 1 {
		return fmt.Errorf("BIWENGER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cfg.BiwengerCircuitEnabled = circuitEnabled
	cfg.BiwengerCircuitFailureCount = failureCount
	cfg.BiwengerCircuitOpenTimeout = openTimeout
	cfg.BiwengerCircuitHalfOpenMaxReq = halfOpenMaxReq
	return nil
}

func loadPipeline(cfg *Config) error {
	boardLimit, err := getEnvAsInt("BOARD_LIMIT", 8)
	if err != nil {
		return fmt.Errorf("parse BOARD_LIMIT: %w", err)
	}
	if boardLimit < 1 {
		return fmt.Errorf("BOARD_LIMIT must be >= 1")
	}
	workers, err := getEnvAsInt("OWNER_FETCH_WORKERS", 4)
	if err != nil {
		return fmt.Errorf("parse OWNER_FETCH_WORKERS: %w", err)
	}
	if workers < 1 {
		return fmt.Errorf("OWNER_FETCH_WORKERS must be >= 1")
	}
	ownerTimeout, err := getEnvAsPositiveDuration("OWNER_FETCH_TIMEOUT", "30s")
	if err != nil {
		return err
	}
	refreshTimeout, err := getEnvAsPositiveDuration("REFRESH_TIMEOUT", "2m")
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(getEnv("LEAGUE_TIMEZONE", "Europe/Madrid"))
	if err != nil {
		return fmt.Errorf("parse LEAGUE_TIMEZONE: %w", err)
	}

	window, err := getEnvAsPositiveDuration("CLAUSE_WINDOW", "168h")
	if err != nil {
		return err
	}
	skew, err := time.ParseDuration(getEnv("CLAUSE_WINDOW_SKEW", "2h"))
	if err != nil {
		return fmt.Errorf("parse CLAUSE_WINDOW_SKEW: %w", err)
	}
	if skew < 0 {
		return fmt.Errorf("CLAUSE_WINDOW_SKEW must be >= 0")
	}
	clauseCap, err := getEnvAsInt("CLAUSE_CAP", 3)
	if err != nil {
		return fmt.Errorf("parse CLAUSE_CAP: %w", err)
	}
	if clauseCap < 0 {
		return fmt.Errorf("CLAUSE_CAP must be >= 0")
	}
	serveStale, err := strconv.ParseBool(getEnv("SERVE_STALE", "true"))
	if err != nil {
		return fmt.Errorf("parse SERVE_STALE: %w", err)
	}

	schedule := getEnv("REFRESH_SCHEDULE", refreshkey.DefaultSchedule)
	if _, err := refreshkey.Parse(schedule, loc, refreshkey.DefaultDaySkew); err != nil {
		return fmt.Errorf("parse REFRESH_SCHEDULE: %w", err)
	}

	cfg.BoardLimit = boardLimit
	cfg.OwnerFetchWorkers = workers
	cfg.OwnerFetchTimeout = ownerTimeout
	cfg.RefreshTimeout = refreshTimeout
	cfg.LeagueLocation = loc
	cfg.RefreshSchedule = schedule
	cfg.ClauseWindow = window
	cfg.ClauseWindowSkew = skew
	cfg.ClauseCap = clauseCap
	cfg.ServeStale = serveStale
	return nil
}

func loadCache(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(getEnv("CACHE_BACKEND", CacheBackendMemory)))
	switch backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: valid values are %s, %s", backend, CacheBackendMemory, CacheBackendRedis)
	}

	ttl, err := getEnvAsPositiveDuration("CACHE_TTL", "12h")
	if err != nil {
		return err
	}
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if redisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0")
	}
	redisAddr := strings.TrimSpace(getEnv("REDIS_ADDR", ""))
	if backend == CacheBackendRedis && redisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
	}

	cfg.CacheBackend = backend
	cfg.CacheTTL = ttl
	cfg.RedisAddr = redisAddr
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = redisDB
	return nil
}

func loadObservability(cfg *Config) error {
	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.MetricsEnabled = metricsEnabled
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = pprofAddr
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = pyroscopeServerAddress
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate = pyroscopeUploadRate
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func requirePositiveID(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", key)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if id <= 0 {
		return fmt.Errorf("%s must be > 0", key)
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
