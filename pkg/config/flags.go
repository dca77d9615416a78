package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FlagSet maps feature-flag names to their enabled state
type FlagSet map[string]bool

// Known feature flags
const (
	FlagWorkspaces               = "workspaces"
	FlagCommandPalette           = "commandPalette"
	FlagMultiTenant              = "multiTenant"
	FlagTicketing                = "ticketing"
	FlagCompliance               = "compliance"
	FlagCICD                     = "cicd"
	FlagReporting                = "reporting"
	FlagSecurityModel            = "securityModel"
	FlagFoundationThemes         = "foundationThemes"
	FlagInitiatives              = "initiatives"
	FlagPlatformPolicyManagement = "platformPolicyManagement"
)

// DefaultFlags returns the baseline flag assignment
func DefaultFlags() FlagSet {
	return FlagSet{
		FlagWorkspaces:               true,
		FlagCommandPalette:           true,
		FlagMultiTenant:              true,
		FlagTicketing:                true,
		FlagCompliance:               true,
		FlagCICD:                     true,
		FlagReporting:                true,
		FlagSecurityModel:            true,
		FlagFoundationThemes:         false,
		FlagInitiatives:              false,
		FlagPlatformPolicyManagement: false,
	}
}

// ParseFlags parses a "flag=enabled;flag=disabled" string. Malformed pairs
// are skipped.
func ParseFlags(s string) FlagSet {
	flags := FlagSet{}
	if s == "" {
		return flags
	}
	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		flags[key] = strings.TrimSpace(value) == "enabled"
	}
	return flags
}

// FormatFlagsHeader serializes a flag set for the feature-flag request
// header, using the same "flag=enabled;flag=disabled" convention ParseFlags
// reads. Keys are sorted for a stable header value.
func FormatFlagsHeader(flags FlagSet) string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		state := "disabled"
		if flags[k] {
			state = "enabled"
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, state))
	}
	return strings.Join(pairs, ";")
}

// MergeFlags layers overrides over a base flag set, later sets winning
// key-by-key. The base is not modified.
func MergeFlags(base FlagSet, overrides ...FlagSet) FlagSet {
	merged := make(FlagSet, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for _, o := range overrides {
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged
}

// FlagResolver computes the effective flag set from defaults, the
// environment override string, and a local per-user override file. The
// override file stands in for the browser-local store and is re-read when
// it changes on disk.
type FlagResolver struct {
	envFlags     FlagSet
	overridePath string
	logger       *logrus.Entry

	mu    sync.RWMutex
	local FlagSet
}

// NewFlagResolver creates a resolver from the flag configuration
func NewFlagResolver(cfg FlagsConfig) *FlagResolver {
	r := &FlagResolver{
		envFlags:     ParseFlags(cfg.EnvFlags),
		overridePath: cfg.OverridePath,
		logger:       logrus.WithField("component", "feature-flags"),
		local:        FlagSet{},
	}
	r.reloadLocal()
	return r
}

// Effective returns the merged flag set: defaults, then environment
// overrides, then local overrides, later layers winning per key.
func (r *FlagResolver) Effective() FlagSet {
	r.mu.RLock()
	local := r.local
	r.mu.RUnlock()
	return MergeFlags(DefaultFlags(), r.envFlags, local)
}

// Enabled reports whether a single flag is enabled in the effective set
func (r *FlagResolver) Enabled(flag string) bool {
	return r.Effective()[flag]
}

// Header returns the effective flags serialized for the request header
func (r *FlagResolver) Header() string {
	return FormatFlagsHeader(r.Effective())
}

// reloadLocal re-reads the local override file. A missing file clears the
// local layer.
func (r *FlagResolver) reloadLocal() {
	local := FlagSet{}
	if r.overridePath != "" {
		data, err := os.ReadFile(r.overridePath)
		if err == nil {
			local = ParseFlags(strings.TrimSpace(string(data)))
		} else if !os.IsNotExist(err) {
			r.logger.WithError(err).Warn("failed to read feature-flag override file")
		}
	}

	r.mu.Lock()
	r.local = local
	r.mu.Unlock()
}

// Watch re-reads the local override file whenever it changes, until the
// context is cancelled. It returns immediately when no override path is
// configured.
func (r *FlagResolver) Watch(ctx context.Context) error {
	if r.overridePath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create flag watcher: %w", err)
	}

	// Watch the parent directory so create/rename of the file itself is
	// observed.
	dir := r.overridePath[:strings.LastIndex(r.overridePath, "/")+1]
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == r.overridePath {
					r.reloadLocal()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.WithError(err).Warn("flag watcher error")
			}
		}
	}()

	return nil
}
