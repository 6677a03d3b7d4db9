package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HTTPServer.Mode is "RW", or "RO" for an instance that only serves reads.
type HTTPServer struct {
	Host           string
	Port           string
	Mode           string
	AllowedOrigins []string
}

type RedisCache struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type Postgres struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type TMDB struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
}

type Feed struct {
	BatchSize   int
	MaxPages    int
	ResumePages int
	Attempts    int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

type Session struct {
	TTL           time.Duration
	CodeAttempts  int
	CleanupPeriod int
	LedgerTimeout time.Duration
	Quorum        int
}

type Presence struct {
	Timeout       time.Duration
	SweepInterval time.Duration
}

// Events.Fanout is "local" for a single instance or "postgres" to relay
// through LISTEN/NOTIFY.
type Events struct {
	Fanout string
}

// Storage.Driver is "postgres" or "memory".
type Storage struct {
	Driver string
}

type Details struct {
	CacheSize int
	CacheTTL  time.Duration
}

type Logging struct {
	Level  string
	Format string
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	TMDB     TMDB
	Feed     Feed
	Session  Session
	Presence Presence
	Events   Events
	Storage  Storage
	Details  Details
	Logging  Logging
}

const logtag = "[config]"

// Load reads the environment, optionally seeded from the env file at path.
func Load(path string) *Config {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, path)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	return &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		TMDB:     *newTMDB(),
		Feed:     *newFeed(),
		Session:  *newSession(),
		Presence: *newPresence(),
		Events:   Events{Fanout: getenv("EVENTS_FANOUT", "local")},
		Storage:  Storage{Driver: getenv("STORAGE_DRIVER", "postgres")},
		Details:  *newDetails(),
		Logging:  *newLogging(),
	}
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port:           getenv("HTTP_PORT", "8080"),
		Host:           getenv("HTTP_HOST", "localhost"),
		Mode:           strings.ToUpper(getenv("HTTP_MODE", "RW")),
		AllowedOrigins: getenvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://*.vercel.app"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Enabled:  getenvBool("REDIS_ENABLED", false),
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getsecret("REDIS_PASSWORD", "shared"),
		DB:       getenvInt("REDIS_DB", 0),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:         getenv("DB_HOST", "localhost"),
		Port:         getenv("DB_PORT", "5432"),
		User:         getenv("DB_USER", "admin"),
		Password:     getsecret("DB_PASSWORD", "shared"),
		DBName:       getenv("DB_NAME", "kinomatch"),
		SSLMode:      getenv("DB_SSLMODE", "disable"),
		MaxOpenConns: getenvInt("DB_MAX_OPEN_CONNS", 20),
	}
}

func newTMDB() *TMDB {
	return &TMDB{
		APIKey:       getsecret("TMDB_API_KEY", ""),
		BaseURL:      getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		ImageBaseURL: getenv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		Language:     getenv("TMDB_LANGUAGE", "pt-BR"),
		Timeout:      getenvDuration("TMDB_TIMEOUT", 5*time.Second),
	}
}

func newFeed() *Feed {
	return &Feed{
		BatchSize:   getenvInt("FEED_BATCH_SIZE", 20),
		MaxPages:    getenvInt("FEED_MAX_PAGES", 3),
		ResumePages: getenvInt("FEED_RESUME_PAGES", 30),
		Attempts:    getenvInt("FEED_ATTEMPTS", 3),
		RetryDelay:  getenvDuration("FEED_RETRY_DELAY", 200*time.Millisecond),
		Timeout:     getenvDuration("FEED_TIMEOUT", 10*time.Second),
	}
}

func newSession() *Session {
	return &Session{
		TTL:           getenvDuration("SESSION_TTL", 0),
		CodeAttempts:  getenvInt("SESSION_CODE_ATTEMPTS", 5),
		CleanupPeriod: getenvInt("SESSION_CLEANUP_PERIOD", 20),
		LedgerTimeout: getenvDuration("LEDGER_TIMEOUT", 3*time.Second),
		Quorum:        getenvInt("MATCH_QUORUM", 2),
	}
}

func newPresence() *Presence {
	return &Presence{
		Timeout:       getenvDuration("PRESENCE_TIMEOUT", 45*time.Second),
		SweepInterval: getenvDuration("PRESENCE_SWEEP_INTERVAL", 5*time.Second),
	}
}

func newDetails() *Details {
	return &Details{
		CacheSize: getenvInt("DETAILS_CACHE_SIZE", 1024),
		CacheTTL:  getenvDuration("DETAILS_CACHE_TTL", 30*time.Minute),
	}
}

func newLogging() *Logging {
	return &Logging{
		Level:  getenv("LOG_LEVEL", "info"),
		Format: getenv("LOG_FORMAT", "text"),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

// getsecret is getenv without echoing the value.
func getsecret(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined\n", logtag, key)
		return defaultValue
	}
	fmt.Printf("%s %s is set\n", logtag, key)
	return val
}

func getenvInt(key string, defaultValue int) int {
	raw := getenv(key, strconv.Itoa(defaultValue))
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("%s %s=%q is not an integer, using %d", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getenvBool(key string, defaultValue bool) bool {
	raw := getenv(key, strconv.FormatBool(defaultValue))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("%s %s=%q is not a boolean, using %t", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getenv(key, defaultValue.String())
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("%s %s=%q is not a duration, using %s", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getenvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getenv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
