// Package featureflags evaluates runtime toggles configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// SearchFallback gates the related-results pass of video search. On when unset.
	SearchFallback = "search_fallback"
	OAuthGoogle    = "oauth_google"
	OAuthGithub    = "oauth_github"
)

// defaults apply to flags absent from the configured list.
var defaults = map[string]bool{
	SearchFallback: true,
	OAuthGoogle:    true,
	OAuthGithub:    true,
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "search_fallback=on,oauth_github=25%,oauth_google=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = normalize(key)
		value = normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic per-user rollout; anonymous users are excluded)
//
// Unconfigured flags fall back to their registered default, or false.
func (m *Manager) Enabled(name string, userID uint) bool {
	name = normalize(name)
	if m == nil {
		return defaults[name]
	}

	value, ok := m.flags[name]
	if !ok {
		return defaults[name]
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if pctRaw, isPct := strings.CutSuffix(value, "%"); isPct {
		pct, err := strconv.Atoi(pctRaw)
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < pct
	}

	return false
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated status of every known or configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name, userID)
	}
	for name := range m.Raw() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", name, userID)))
	return int(h.Sum32() % 100)
}
