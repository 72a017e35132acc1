// Package rules loads the declarative rule library from YAML
// configuration files into validated, compiled Rule values.
//
// Loading degrades rather than fails: a rule that does not validate is
// excluded and reported as an ERROR ValidationMessage; only a missing
// or unparsable root file is fatal.
package rules

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/auditscope/auditscope/pkg/errors"
	"github.com/auditscope/auditscope/pkg/logging"
	"github.com/auditscope/auditscope/pkg/types"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// LoadResult is the outcome of loading a rule library.
type LoadResult struct {
	// Global holds the defaults that were merged into every rule; nil
	// when the root file has no global section
	Global *types.GlobalConfig

	// Rules maps rule name to its validated, compiled rule
	Rules map[string]*types.Rule

	// Messages itemizes every rejected rule and loading oddity
	Messages []types.ValidationMessage
}

// ruleConfig mirrors one rule body in the YAML schema.
type ruleConfig struct {
	Pattern     string             `koanf:"pattern"`
	Comment     string             `koanf:"comment"`
	Filters     []filterConfig     `koanf:"filters"`
	MergeFields []mergeFieldConfig `koanf:"merge_fields"`
	MaxResults  int                `koanf:"max_results"`
}

type filterConfig struct {
	Attr  string      `koanf:"attr"`
	Comp  string      `koanf:"comp"`
	Value interface{} `koanf:"value"`
}

type mergeFieldConfig struct {
	Dest    string   `koanf:"dest"`
	Sources []string `koanf:"sources"`
}

type globalConfig struct {
	Filters     []filterConfig     `koanf:"filters"`
	MergeFields []mergeFieldConfig `koanf:"merge_fields"`
	MaxResults  int                `koanf:"max_results"`
}

// Loader loads rule libraries.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a rule loader.
func NewLoader() *Loader {
	return &Loader{logger: logging.GetLogger("rules.loader")}
}

// Load reads the root configuration file, resolves include directives
// recursively, validates every rule, and merges the root file's global
// defaults into each surviving rule. It returns an error only when the
// root file itself is missing or unparsable.
func (l *Loader) Load(root string) (*LoadResult, error) {
	result := &LoadResult{Rules: make(map[string]*types.Rule)}

	state := &loadState{loaded: make(map[string]bool), stack: make(map[string]bool)}
	global, err := l.loadFile(root, true, state, result)
	if err != nil {
		return nil, err
	}

	l.mergeGlobal(global, result)

	l.logger.Info().
		Str("root", root).
		Int("rules", len(result.Rules)).
		Int("messages", len(result.Messages)).
		Msg("Loaded rule library")

	return result, nil
}

// LoadMap loads a rule library from an in-memory configuration map.
// Includes are not resolvable without a filesystem, so include keys
// are reported as warnings. Intended for tests and embedding callers.
func (l *Loader) LoadMap(conf map[string]interface{}) (*LoadResult, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(conf, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot load configuration map")
	}

	result := &LoadResult{Rules: make(map[string]*types.Rule)}
	for _, key := range includeKeys(k) {
		result.Messages = append(result.Messages,
			types.WarningMessage("", "ignoring %s: includes are not supported for in-memory configuration", key))
	}

	global := l.collectRules(k, "(map)", result)
	l.mergeGlobal(global, result)
	return result, nil
}

// loadState tracks the include graph walk: loaded dedups files reached
// through more than one include path, stack detects true cycles.
type loadState struct {
	loaded map[string]bool
	stack  map[string]bool
}

// loadFile parses one configuration file, collects its rules, then
// recurses into its includes. Only the root file's errors are fatal;
// include problems degrade to ERROR messages.
func (l *Loader) loadFile(path string, isRoot bool, state *loadState, result *LoadResult) (*globalConfig, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		abs = filepath.Clean(path)
	}
	if state.stack[abs] {
		result.Messages = append(result.Messages,
			types.ErrorMessage("", "include cycle detected at %s", path))
		return nil, nil
	}
	if state.loaded[abs] {
		result.Messages = append(result.Messages,
			types.InfoMessage("", "%s already included, skipping", path))
		return nil, nil
	}
	state.loaded[abs] = true
	state.stack[abs] = true
	defer delete(state.stack, abs)

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		if isRoot {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot load rule configuration %s", path)
		}
		result.Messages = append(result.Messages,
			types.ErrorMessage("", "cannot load included file %s: %v", path, err))
		return nil, nil
	}

	global := l.collectRules(k, path, result)

	// Includes resolve relative to the including file.
	dir := filepath.Dir(path)
	for _, key := range includeKeys(k) {
		includes := k.Strings(key)
		if len(includes) == 0 && k.String(key) != "" {
			includes = []string{k.String(key)}
		}
		for _, inc := range includes {
			incPath := inc
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(dir, incPath)
			}
			incGlobal, err := l.loadFile(incPath, false, state, result)
			if err != nil {
				return nil, err
			}
			if incGlobal != nil {
				result.Messages = append(result.Messages,
					types.WarningMessage("", "ignoring global section in included file %s; only the root file's global applies", incPath))
			}
		}
	}

	return global, nil
}

// collectRules validates and registers every rule defined in one file.
func (l *Loader) collectRules(k *koanf.Koanf, origin string, result *LoadResult) *globalConfig {
	var global *globalConfig
	if k.Exists("global") {
		global = &globalConfig{}
		if err := k.Unmarshal("global", global); err != nil {
			result.Messages = append(result.Messages,
				types.ErrorMessage("", "malformed global section in %s: %v", origin, err))
			global = nil
		}
	}

	raw := make(map[string]ruleConfig)
	if k.Exists("rules") {
		if err := k.Unmarshal("rules", &raw); err != nil {
			result.Messages = append(result.Messages,
				types.ErrorMessage("", "malformed rules section in %s: %v", origin, err))
			return global
		}
	}

	// Deterministic processing order for stable messages.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := result.Rules[name]; exists {
			result.Messages = append(result.Messages,
				types.ErrorMessage(name, "duplicate rule name (redefined in %s); keeping the first definition", origin))
			continue
		}

		rule, msgs := validateRule(name, raw[name])
		result.Messages = append(result.Messages, msgs...)
		if rule != nil {
			result.Rules[name] = rule
		}
	}

	return global
}

// mergeGlobal applies the root file's global defaults to every rule:
// global filters are appended to the rule's own (AND semantics keep
// the result order-independent), merge fields and max_results fill in
// only where the rule sets none.
func (l *Loader) mergeGlobal(global *globalConfig, result *LoadResult) {
	if global == nil {
		return
	}

	cfg := &types.GlobalConfig{MaxResults: global.MaxResults}
	for _, f := range global.Filters {
		sf, msg := validateFilter("global", f)
		if msg != nil {
			result.Messages = append(result.Messages, *msg)
			continue
		}
		cfg.SystemFilters = append(cfg.SystemFilters, *sf)
	}
	for _, m := range global.MergeFields {
		mf, msg := validateMergeField("global", m)
		if msg != nil {
			result.Messages = append(result.Messages, *msg)
			continue
		}
		cfg.MergeFields = append(cfg.MergeFields, *mf)
	}
	result.Global = cfg

	for _, rule := range result.Rules {
		rule.SystemFilters = append(rule.SystemFilters, cfg.SystemFilters...)
		if len(rule.MergeFields) == 0 {
			rule.MergeFields = append(rule.MergeFields, cfg.MergeFields...)
		}
		if rule.MaxResults == 0 {
			rule.MaxResults = cfg.MaxResults
		}
	}
}

// includeKeys returns the top-level include_* keys of a parsed file.
func includeKeys(k *koanf.Koanf) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, key := range k.Keys() {
		top := key
		if i := strings.Index(key, "."); i >= 0 {
			top = key[:i]
		}
		if strings.HasPrefix(top, "include") && !seen[top] {
			seen[top] = true
			keys = append(keys, top)
		}
	}
	sort.Strings(keys)
	return keys
}
