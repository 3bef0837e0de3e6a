package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time parses duration-valued settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations and ints
// for the knobs of the generation workers and the lock lease.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens

	DBMaxOpenConns int           // connection pool ceiling
	DBConnLifetime time.Duration // max age of a pooled connection

	LockTTL        time.Duration // lease granted to a generation lock
	ReaperInterval time.Duration // how often expired locks are swept

	QuestionAttempts int           // retry ceiling per question chunk
	SummaryAttempts  int           // retry ceiling per summary job
	BackoffBase      time.Duration // initial retry delay for generation calls
	BackoffCap       time.Duration // upper bound on a single retry delay
	ChunkWindow      time.Duration // transcript span per question chunk
	JobTimeout       time.Duration // overall bound on one background job
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The generation and
// lock knobs are optional and fall back to conservative defaults.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),      // environment (dev/test/prod)
		Port:      must("APP_PORT"),     // port to bind the HTTP server
		DBUser:    must("DB_USER"),      // database user
		DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:    must("DB_HOST"),      // database host
		DBPort:    must("DB_PORT"),      // database port
		DBName:    must("DB_NAME"),      // database name
		JWTSecret: must("JWT_SECRET"),   // secret used for verifying JWTs

		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
		DBConnLifetime: envDur("DB_CONN_LIFETIME", 30*time.Minute),

		LockTTL:        envDur("GENERATION_LOCK_TTL", 20*time.Minute),
		ReaperInterval: envDur("GENERATION_LOCK_REAPER_INTERVAL", time.Minute),

		QuestionAttempts: envInt("GENERATION_QUESTION_ATTEMPTS", 5),
		SummaryAttempts:  envInt("GENERATION_SUMMARY_ATTEMPTS", 3),
		BackoffBase:      envDur("GENERATION_BACKOFF_BASE", 500*time.Millisecond),
		BackoffCap:       envDur("GENERATION_BACKOFF_CAP", 10*time.Second),
		ChunkWindow:      envDur("GENERATION_CHUNK_WINDOW", 10*time.Minute),
		JobTimeout:       envDur("GENERATION_JOB_TIMEOUT", 15*time.Minute),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt, envDur and the other optional-variable helpers live in
// ratelimit.go and are shared by all loaders in this package.
