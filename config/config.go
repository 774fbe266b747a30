package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

var (
	TLS_DOMAINS          = "" // e.g. "example.com,example2.com"
	BIND_ADDRESS         = "0.0.0.0:8080"
	PUBLIC_URL           = "http://localhost:8080"
	DEBUG_MODE           = true
	DATABASE_DRIVER      = "sqlite" // postgres, mysql or sqlite
	DATABASE_DSN         = "sociallink.db"
	SESSION_KEY          = "" // Cookie store key, falls back to JWT_SECRET
	JWT_SECRET           = "" // Supabase project JWT secret (HS256), also used by the local provider
	AUTH_PROVIDER        = "" // Defaults to supabase when SUPABASE_URL is set, local otherwise
	SUPABASE_URL         = "" // e.g. https://<ref>.supabase.co
	SUPABASE_ANON_KEY    = ""
	SUPABASE_SERVICE_KEY = ""       // Needed for deleting auth users and for storage
	DEFAULT_STORAGE      = "file"   // file, s3 or supabase. Used for creating the initial buckets
	DEFAULT_BUCKET_DIR   = "./data" // Base dir for "file" buckets
	S3_ENDPOINT          = ""       // e.g. https://<ref>.supabase.co/storage/v1/s3 for Supabase's S3 protocol
	S3_REGION            = "us-east-1"
	S3_KEY               = ""
	S3_SECRET            = ""
	S3_BUCKET_PREFIX     = "" // Remote bucket names become <prefix><kind>s, e.g. "avatars"
	WEBHOOK_URL          = "" // Discord-compatible webhook for admin events
	MAX_UPLOAD_MB        = 10
	DEFAULT_INVITE_LIMIT = 0 // Invite limit given to newly registered users, 0 means none
	TRUST_PROXY          = false
)

func init() {
	Load()
}

// Load reads .env (if present) and then the environment
func Load() {
	_ = godotenv.Load()

	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("PUBLIC_URL", &PUBLIC_URL)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("DATABASE_DRIVER", &DATABASE_DRIVER)
	readEnvString("DATABASE_DSN", &DATABASE_DSN)
	readEnvString("JWT_SECRET", &JWT_SECRET)
	readEnvString("SUPABASE_URL", &SUPABASE_URL)
	readEnvString("SUPABASE_ANON_KEY", &SUPABASE_ANON_KEY)
	readEnvString("SUPABASE_SERVICE_KEY", &SUPABASE_SERVICE_KEY)
	readEnvString("DEFAULT_STORAGE", &DEFAULT_STORAGE)
	readEnvString("DEFAULT_BUCKET_DIR", &DEFAULT_BUCKET_DIR)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_SECRET", &S3_SECRET)
	readEnvString("S3_BUCKET_PREFIX", &S3_BUCKET_PREFIX)
	readEnvString("WEBHOOK_URL", &WEBHOOK_URL)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvInt("DEFAULT_INVITE_LIMIT", &DEFAULT_INVITE_LIMIT)
	readEnvBool("TRUST_PROXY", &TRUST_PROXY)

	AUTH_PROVIDER = strings.ToLower(os.Getenv("AUTH_PROVIDER"))
	if AUTH_PROVIDER == "" {
		if SUPABASE_URL != "" {
			AUTH_PROVIDER = AuthProviderSupabase
		} else {
			AUTH_PROVIDER = AuthProviderLocal
		}
	}
	SESSION_KEY = os.Getenv("SESSION_KEY")
	if SESSION_KEY == "" {
		SESSION_KEY = JWT_SECRET
	}
}

// LoadFile applies a YAML file of NAME: value pairs. Variables already set in the environment win.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	values := map[string]string{}
	if err = yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	for name, value := range values {
		name = strings.ToUpper(name)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err = os.Setenv(name, value); err != nil {
			return err
		}
	}
	Load()
	return nil
}

// Validate reports settings that cannot work together
func Validate() error {
	var errs []error
	switch AUTH_PROVIDER {
	case AuthProviderSupabase:
		if SUPABASE_URL == "" || SUPABASE_ANON_KEY == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase auth provider"))
		}
	case AuthProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be %q or %q", AuthProviderSupabase, AuthProviderLocal))
	}
	if len(JWT_SECRET) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	switch DATABASE_DRIVER {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", DATABASE_DRIVER))
	}
	switch DEFAULT_STORAGE {
	case "file":
	case "s3":
		if S3_KEY == "" || S3_SECRET == "" {
			errs = append(errs, errors.New("S3_KEY and S3_SECRET are required for s3 storage"))
		}
	case "supabase":
		if SUPABASE_URL == "" || SUPABASE_SERVICE_KEY == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for supabase storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DEFAULT_STORAGE %q", DEFAULT_STORAGE))
	}
	if MAX_UPLOAD_MB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}
