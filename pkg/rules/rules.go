// Package rules is the rule source: it produces the ordered list of
// link rules the engine consumes. Rules come from links.toml (or
// links.yaml) at the repository root, falling back to the embedded
// defaults. The sequence is re-derived from the declarative text on
// every load; nothing is cached or mutated.
package rules

import (
	_ "embed"
	"errors"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	jsherrors "github.com/jovalle/jsh/pkg/errors"
	"github.com/jovalle/jsh/pkg/logging"
	"github.com/jovalle/jsh/pkg/types"
)

// Rule file names probed at the repository root, in order.
var ruleFiles = []struct {
	name   string
	parser koanf.Parser
}{
	{"links.toml", toml.Parser()},
	{"links.yaml", yaml.Parser()},
}

//go:embed default_links.toml
var defaultRules []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load returns the rule list for the repository rooted at jshRoot.
// Invalid entries are dropped with a warning; only an unreadable or
// unparseable rule file is an error.
func Load(fs types.FS, jshRoot string) ([]types.LinkRule, error) {
	logger := logging.GetLogger("rules")

	for _, rf := range ruleFiles {
		path := filepath.Join(jshRoot, rf.name)
		data, err := fs.ReadFile(path)
		if err != nil {
			continue
		}

		rules, err := parse(data, rf.parser)
		if err != nil {
			return nil, jsherrors.Wrapf(err, jsherrors.ErrRulesLoad, "failed to parse %s", path)
		}
		logger.Debug().Str("path", path).Int("rules", len(rules)).Msg("Loaded rule file")
		return validate(rules), nil
	}

	logger.Debug().Msg("No rule file found, using embedded defaults")
	rules, err := parse(defaultRules, toml.Parser())
	if err != nil {
		return nil, jsherrors.Wrap(err, jsherrors.ErrRulesLoad, "failed to parse embedded default rules")
	}
	return validate(rules), nil
}

func parse(data []byte, parser koanf.Parser) ([]types.LinkRule, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, err
	}

	var rules []types.LinkRule
	if err := k.Unmarshal("link", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// validate drops malformed entries with a warning. A bad entry never
// aborts the whole load.
func validate(rules []types.LinkRule) []types.LinkRule {
	logger := logging.GetLogger("rules")

	valid := rules[:0]
	for i, r := range rules {
		if r.Source == "" {
			logger.Warn().Int("rule", i).Msg("Rule has no source, skipping")
			continue
		}
		if filepath.IsAbs(r.Source) {
			logger.Warn().Int("rule", i).Str("source", r.Source).
				Msg("Rule source must be relative to the repository root, skipping")
			continue
		}
		switch r.Kind {
		case "", types.KindFile, types.KindDirectory, types.KindDirectoryChildren:
		default:
			logger.Warn().Int("rule", i).Str("kind", string(r.Kind)).
				Msg("Rule has unknown kind, skipping")
			continue
		}
		switch r.Platform {
		case "", types.PlatformAll, types.PlatformMacOS, types.PlatformLinux:
		default:
			logger.Warn().Int("rule", i).Str("platform", string(r.Platform)).
				Msg("Rule has unknown platform, skipping")
			continue
		}
		if r.Kind == "" {
			r.Kind = types.KindFile
		}
		if r.Platform == "" {
			r.Platform = types.PlatformAll
		}
		valid = append(valid, r)
	}
	return valid
}

// ForPlatform filters the rule list to those applying on the detected
// platform, preserving order.
func ForPlatform(rules []types.LinkRule, detected types.Platform) []types.LinkRule {
	var out []types.LinkRule
	for _, r := range rules {
		if r.Platform.Matches(detected) {
			out = append(out, r)
		}
	}
	return out
}
