package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Backend drivers for the document store gateway.
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Identity drivers.
const (
	IdentityLocal    = "local"
	IdentityFirebase = "firebase"
)

// Representative policies applied when a course edit drops the edited record's own section.
const (
	RepresentativeKeep   = "keep"
	RepresentativeDelete = "delete"
)

// Subject name matching modes for the uniqueness guard.
const (
	SubjectMatchCaseInsensitive = "case_insensitive"
	SubjectMatchLegacy          = "legacy"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend     BackendConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Firebase    FirebaseConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Cache       CacheConfig
	Metrics     MetricsConfig
	Courses     CoursesConfig
	Subjects    SubjectsConfig
	Assignments AssignmentsConfig
	Parents     ParentsConfig
	Bootstrap   BootstrapConfig
}

// BackendConfig selects the gateway adapters.
type BackendConfig struct {
	Driver         string
	IdentityDriver string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// FirebaseConfig points at the hosted platform project.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	WebAPIKey       string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs read-through caching of catalogue lookups.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// CoursesConfig tunes the course consistency engine.
type CoursesConfig struct {
	ExcludedRepresentative string
}

// SubjectsConfig tunes the subject uniqueness guard.
type SubjectsConfig struct {
	NameMatching string
}

// AssignmentsConfig tunes status fan-out and due date classification.
type AssignmentsConfig struct {
	FanoutConcurrency int
	DueSoonDays       int
}

// ParentsConfig tunes the parent typeahead.
type ParentsConfig struct {
	SearchMinChars int
	Debounce       time.Duration
}

// BootstrapConfig describes the first administrator created at startup.
type BootstrapConfig struct {
	AdminName       string
	AdminNationalID string
	AdminEmail      string
	AdminPassword   string
}

// Enabled reports whether an administrator should be bootstrapped.
func (c BootstrapConfig) Enabled() bool {
	return c.AdminEmail != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		Driver:         strings.ToLower(v.GetString("BACKEND_DRIVER")),
		IdentityDriver: strings.ToLower(v.GetString("IDENTITY_DRIVER")),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Firebase = FirebaseConfig{
		ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		WebAPIKey:       v.GetString("FIREBASE_WEB_API_KEY"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Courses = CoursesConfig{
		ExcludedRepresentative: oneOf(v.GetString("COURSE_EXCLUDED_REPRESENTATIVE"), RepresentativeKeep, RepresentativeKeep, RepresentativeDelete),
	}

	cfg.Subjects = SubjectsConfig{
		NameMatching: oneOf(v.GetString("SUBJECT_NAME_MATCHING"), SubjectMatchCaseInsensitive, SubjectMatchCaseInsensitive, SubjectMatchLegacy),
	}

	fanout := v.GetInt("ASSIGNMENT_FANOUT_CONCURRENCY")
	if fanout <= 0 {
		fanout = 16
	}
	dueSoon := v.GetInt("ASSIGNMENT_DUE_SOON_DAYS")
	if dueSoon < 0 {
		dueSoon = 2
	}
	cfg.Assignments = AssignmentsConfig{
		FanoutConcurrency: fanout,
		DueSoonDays:       dueSoon,
	}

	minChars := v.GetInt("PARENT_SEARCH_MIN_CHARS")
	if minChars <= 0 {
		minChars = 2
	}
	cfg.Parents = ParentsConfig{
		SearchMinChars: minChars,
		Debounce:       parseDuration(v.GetString("PARENT_SEARCH_DEBOUNCE"), 400*time.Millisecond),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminName:       v.GetString("BOOTSTRAP_ADMIN_NAME"),
		AdminNationalID: v.GetString("BOOTSTRAP_ADMIN_CEDULA"),
		AdminEmail:      strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL")),
		AdminPassword:   v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_DRIVER", BackendMemory)
	v.SetDefault("IDENTITY_DRIVER", IdentityLocal)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "escuela_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "escuela-portal-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("COURSE_EXCLUDED_REPRESENTATIVE", RepresentativeKeep)
	v.SetDefault("SUBJECT_NAME_MATCHING", SubjectMatchCaseInsensitive)
	v.SetDefault("ASSIGNMENT_FANOUT_CONCURRENCY", 16)
	v.SetDefault("ASSIGNMENT_DUE_SOON_DAYS", 2)
	v.SetDefault("PARENT_SEARCH_MIN_CHARS", 2)
	v.SetDefault("PARENT_SEARCH_DEBOUNCE", "400ms")

	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "Administrador")
	v.SetDefault("BOOTSTRAP_ADMIN_CEDULA", "0000000000")
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// oneOf normalises raw and falls back when it is not an allowed value.
func oneOf(raw, fallback string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}

// isMissingFile reports a missing .env; viper surfaces it as a path error when
// SetConfigFile is used instead of a search path.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
