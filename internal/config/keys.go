package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "GOODFIRST_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "catalog.source", typ: kString, env: "GOODFIRST_CATALOG_SOURCE",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Source = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Source },
	},
	{
		key: "catalog.base_url", typ: kString, env: "GOODFIRST_CATALOG_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Catalog.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.BaseURL },
	},
	{
		key: "catalog.github_base_url", typ: kString, env: "GOODFIRST_CATALOG_GITHUB_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Catalog.GitHubBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.GitHubBaseURL },
	},
	{
		key: "catalog.timeout", typ: kString, env: "GOODFIRST_CATALOG_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Timeout },
	},
	{
		key: "catalog.max_results", typ: kInt, env: "GOODFIRST_CATALOG_MAX_RESULTS",
		apply:   func(cfg *Config, v any) { cfg.Catalog.MaxResults = v.(int) },
		extract: func(cfg Config) any { return cfg.Catalog.MaxResults },
	},
	{
		key: "catalog.per_keyword", typ: kInt, env: "GOODFIRST_CATALOG_PER_KEYWORD",
		apply:   func(cfg *Config, v any) { cfg.Catalog.PerKeyword = v.(int) },
		extract: func(cfg Config) any { return cfg.Catalog.PerKeyword },
	},
	{
		key: "catalog.github_token", typ: kString, env: "GOODFIRST_GITHUB_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Catalog.GitHubToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.GitHubToken },
	},
	{
		key: "matching.top_k_skills", typ: kInt, env: "GOODFIRST_MATCHING_TOP_K_SKILLS",
		apply:   func(cfg *Config, v any) { cfg.Matching.TopKSkills = v.(int) },
		extract: func(cfg Config) any { return cfg.Matching.TopKSkills },
	},
	{
		key: "storage.data_dir", typ: kString, env: "GOODFIRST_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "taxonomy.path", typ: kString, env: "GOODFIRST_TAXONOMY_PATH",
		apply:   func(cfg *Config, v any) { cfg.Taxonomy.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Taxonomy.Path },
	},
	{
		key: "log.level", typ: kString, env: "GOODFIRST_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
