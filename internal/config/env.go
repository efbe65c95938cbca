package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Environment variable names.
const (
	EnvHome             = "ZFORGE_HOME"
	EnvRPC              = "ZFORGE_RPC"
	EnvRelayerURL       = "ZFORGE_RELAYER_URL"
	EnvOutputFormat     = "ZFORGE_OUTPUT_FORMAT"
	EnvVerbose          = "ZFORGE_VERBOSE"
	EnvLogLevel         = "ZFORGE_LOG_LEVEL"
	EnvDecryptOnFailure = "ZFORGE_DECRYPT_ON_FAILURE"
	EnvWaitForReceipt   = "ZFORGE_WAIT_FOR_RECEIPT"
	EnvNoColor          = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Network.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvRelayerURL); v != "" {
		cfg.Network.RelayerURL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvDecryptOnFailure); v != "" {
		cfg.Decryption.OnFailure = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvWaitForReceipt); v != "" {
		cfg.Transactions.WaitForReceipt = parseBool(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string pasted into an environment variable:
// whitespace and control characters are dropped, and values that do not
// parse as an absolute URL are returned empty.
func SanitizeURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)

	u, err := url.Parse(cleaned)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.TrimRight(u.String(), "/")
}
