package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SECUREVAULT"

// Config holds server configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Store struct {
		// Driver is "file" (JSON array file) or "sqlite" (key-value database).
		Driver string
		Path   string
	}
	Auth struct {
		JWTSecret       string
		Issuer          string
		TokenTTLMinutes int
	}
	Accounts struct {
		FoldEmailCase bool
	}
	Storage struct {
		// Driver is "local" or "s3".
		Driver           string
		LocalDir         string
		Bucket           string
		KeyPrefix        string
		Region           string
		Endpoint         string
		URLExpiryMinutes int
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// ClientConfig configures the vault command line client.
type ClientConfig struct {
	// Backend is "local" (in-process store) or "remote" (HTTP server).
	Backend       string
	ServerURL     string
	DataPath      string
	FilesDir      string
	Secret        string
	RegisterDelay time.Duration
	LoginDelay    time.Duration
	Timeout       time.Duration
	LogLevel      string
}

// Load reads server configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetDefault("server.addr", "0.0.0.0:3001")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/users.json")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.issuer", "secure-vault")
	v.SetDefault("auth.tokenttlminutes", 60)
	v.SetDefault("accounts.foldemailcase", false)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.localdir", "data/files")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlexpiryminutes", 15)
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.Store.Driver {
	case "file", "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	switch cfg.Storage.Driver {
	case "local", "s3":
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

// LoadClient reads client configuration. Flags that were set on the command line win over
// environment variables, which win over the optional config file and defaults.
func LoadClient(flags *pflag.FlagSet) (ClientConfig, error) {
	loadDotEnv()

	v := newViper()
	v.SetDefault("client.backend", "local")
	v.SetDefault("client.serverurl", "http://localhost:3001/api")
	v.SetDefault("client.datapath", defaultDataPath())
	v.SetDefault("client.filesdir", "")
	v.SetDefault("client.secret", "")
	v.SetDefault("client.registerdelay", time.Second)
	v.SetDefault("client.logindelay", 800*time.Millisecond)
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("log.level", "warn")

	if flags != nil {
		for key, name := range map[string]string{
			"client.backend":   "backend",
			"client.serverurl": "server",
			"client.datapath":  "data",
			"client.filesdir":  "files-dir",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return ClientConfig{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigName("vault")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	cfg := ClientConfig{
		Backend:       strings.ToLower(strings.TrimSpace(v.GetString("client.backend"))),
		ServerURL:     strings.TrimRight(v.GetString("client.serverurl"), "/"),
		DataPath:      v.GetString("client.datapath"),
		FilesDir:      v.GetString("client.filesdir"),
		Secret:        v.GetString("client.secret"),
		RegisterDelay: v.GetDuration("client.registerdelay"),
		LoginDelay:    v.GetDuration("client.logindelay"),
		Timeout:       v.GetDuration("client.timeout"),
		LogLevel:      v.GetString("log.level"),
	}

	switch cfg.Backend {
	case "local", "remote":
	default:
		return ClientConfig{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".securevault", "vault.db")
	}
	return filepath.Join(home, ".securevault", "vault.db")
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
