package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ligun0805/swap-quote/internal/chains"
)

// DefaultAPIKey is what the gate accepts when API_KEY is unset. cmd/quoted
// warns loudly when it is in effect.
const DefaultAPIKey = "my-secure-api-key"

// Settings keeps all configuration options.
// Env keys are accepted in both UPPER_CASE and lower_case.
type Settings struct {
	Port      int
	APIKey    string
	LogLevel  string
	LogPretty bool

	// RPCURLs maps chain id to JSON-RPC endpoint. Only chains listed here are served.
	RPCURLs           map[uint64]string
	RPCMaxConcurrency int
	RPCMaxRetries     int

	UniswapRoutingURL string
	SlippageBps       int64
	Deadline          time.Duration
	RequestTimeout    time.Duration
	BatchConcurrency  int

	CORSOrigins []string
	RedisURL    string
	MetadataTTL time.Duration
}

// LoadDotEnv reads .env and then .env.local (the latter wins). Missing files are fine.
func LoadDotEnv() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() (Settings, error) {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" {
			return def
		}
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}
	getDuration := func(keys []string, def time.Duration) time.Duration {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second
		}
		return def
	}

	st := Settings{}
	st.Port = getInt([]string{"port", "PORT"}, 8000)
	st.APIKey = get([]string{"api_key", "API_KEY"}, DefaultAPIKey)
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.LogPretty = getBool([]string{"log_pretty", "LOG_PRETTY"}, false)

	st.RPCURLs = map[uint64]string{}
	for id, keys := range map[uint64][]string{
		chains.Ethereum: {"eth_url", "ETH_URL"},
		chains.BSC:      {"bsc_url", "BSC_URL"},
		chains.Polygon:  {"matic_url", "MATIC_URL"},
		chains.Base:     {"base_url", "BASE_URL"},
	} {
		if u := get(keys, ""); u != "" {
			st.RPCURLs[id] = u
		}
	}
	extra, err := parseRPCURLs(get([]string{"rpc_urls", "RPC_URLS"}, ""))
	if err != nil {
		return Settings{}, err
	}
	for id, u := range extra {
		st.RPCURLs[id] = u
	}
	st.RPCMaxConcurrency = getInt([]string{"rpc_max_concurrency", "RPC_MAX_CONCURRENCY"}, 16)
	st.RPCMaxRetries = getInt([]string{"rpc_max_retries", "RPC_MAX_RETRIES"}, 3)

	st.UniswapRoutingURL = get([]string{"uniswap_routing_url", "UNISWAP_ROUTING_URL"}, "")
	st.SlippageBps = getInt64([]string{"slippage_bps", "SLIPPAGE_BPS"}, 10_000)
	st.Deadline = getDuration([]string{"deadline_seconds", "DEADLINE_SECONDS"}, 30*time.Minute)
	st.RequestTimeout = getDuration([]string{"request_timeout", "REQUEST_TIMEOUT"}, 60*time.Second)
	st.BatchConcurrency = getInt([]string{"batch_concurrency", "BATCH_CONCURRENCY"}, 4)

	st.CORSOrigins = splitCSV(get([]string{"cors_origins", "CORS_ORIGINS"}, "*"))
	st.RedisURL = get([]string{"redis_url", "REDIS_URL"}, "")
	st.MetadataTTL = getDuration([]string{"metadata_ttl", "METADATA_TTL"}, 24*time.Hour)

	if err := st.Validate(); err != nil {
		return Settings{}, err
	}
	return st, nil
}

// Validate checks ranges that would otherwise fail later at request time.
func (s Settings) Validate() error {
	var errs []error
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", s.Port))
	}
	if s.APIKey == "" {
		errs = append(errs, errors.New("api key is empty"))
	}
	if s.SlippageBps < 0 || s.SlippageBps > 10_000 {
		errs = append(errs, fmt.Errorf("slippage %d bps out of range [0, 10000]", s.SlippageBps))
	}
	if s.RPCMaxConcurrency <= 0 || s.RPCMaxConcurrency > 256 {
		errs = append(errs, fmt.Errorf("rpc concurrency %d out of range [1, 256]", s.RPCMaxConcurrency))
	}
	if s.BatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("batch concurrency %d must be positive", s.BatchConcurrency))
	}
	if s.RPCMaxRetries < 1 {
		errs = append(errs, fmt.Errorf("rpc retries %d must be at least 1", s.RPCMaxRetries))
	}
	return errors.Join(errs...)
}

// UsesDefaultAPIKey reports whether the gate is protected by the well-known default.
func (s Settings) UsesDefaultAPIKey() bool { return s.APIKey == DefaultAPIKey }

// parseRPCURLs parses "56=https://a,137=https://b".
func parseRPCURLs(s string) (map[uint64]string, error) {
	out := map[uint64]string{}
	for _, pair := range splitCSV(s) {
		idStr, u, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("rpc_urls: bad entry %q, want <chainId>=<url>", pair)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("rpc_urls: bad chain id in %q", pair)
		}
		out[id] = strings.TrimSpace(u)
	}
	return out, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
