// Package config loads the gateway's global options from the
// ReqRepTransformation section of the process configuration, via viper,
// the same way the rest of the retrieved corpus's services bind a typed
// config struct out of a named section.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/reqrep/transform/plan"
)

const section = "ReqRepTransformation"

// GlobalOptions holds the process-wide defaults and redaction policy a
// Plan falls back to when a TransformationDetail leaves a field unset.
type GlobalOptions struct {
	DefaultTimeout     time.Duration
	DefaultFailureMode plan.FailureMode

	RedactedHeaderKeys []string
	RedactedQueryKeys  []string

	// PlanCacheTTL governs the Detail Provider's plan cache entries.
	PlanCacheTTL time.Duration
}

// Default returns the baseline options used when no configuration source
// overrides them, matching spec.md §3/§6's default redaction sets.
func Default() GlobalOptions {
	return GlobalOptions{
		DefaultTimeout:     5 * time.Second,
		DefaultFailureMode: plan.StopPipeline,
		RedactedHeaderKeys: []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Client-Secret", "X-Api-Secret", "X-Internal-Token"},
		RedactedQueryKeys:  []string{"access_token", "api_key", "token", "secret"},
		PlanCacheTTL:       30 * time.Second,
	}
}

// Load reads the ReqRepTransformation section from v, falling back to
// Default() for any field left unset by the configuration source.
func Load(v *viper.Viper) (GlobalOptions, error) {
	opts := Default()
	sub := v.Sub(section)
	if sub == nil {
		return opts, nil
	}

	if sub.IsSet("defaultTimeout") {
		opts.DefaultTimeout = sub.GetDuration("defaultTimeout")
	}
	if sub.IsSet("defaultFailureMode") {
		mode, err := plan.ParseFailureMode(sub.GetString("defaultFailureMode"))
		if err != nil {
			return opts, fmt.Errorf("config: %s.defaultFailureMode: %w", section, err)
		}
		opts.DefaultFailureMode = mode
	}
	if sub.IsSet("redactedHeaderKeys") {
		opts.RedactedHeaderKeys = sub.GetStringSlice("redactedHeaderKeys")
	}
	if sub.IsSet("redactedQueryKeys") {
		opts.RedactedQueryKeys = sub.GetStringSlice("redactedQueryKeys")
	}
	if sub.IsSet("planCacheTTL") {
		opts.PlanCacheTTL = sub.GetDuration("planCacheTTL")
	}
	return opts, nil
}
