package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// parseTOML walks the expressions of a TOML document in order. Secrets can be
// written either under table headers ([secrets], [ENVIRONMENT_SECRETS.prod])
// or as dotted keys and inline tables.
func parseTOML(data []byte, b *builder) error {
	// First, verify the document is valid TOML
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid toml: %v", err)
	}

	t := &tomlWalker{b: b}

	var p unstable.Parser
	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		if expr == nil {
			continue
		}

		switch expr.Kind { //nolint:exhaustive // We only care about Table, ArrayTable, and KeyValue
		case unstable.Table:
			t.table = keyPath(expr.Key())
			if err := t.declareTable(t.table); err != nil {
				return err
			}
		case unstable.ArrayTable:
			t.table = keyPath(expr.Key())
			if len(t.table) > 0 && isKnownField(t.table[0]) {
				return fmt.Errorf("%w: %q cannot be an array of tables", ErrConfig, t.table[0])
			}
		case unstable.KeyValue:
			path := append(append([]string{}, t.table...), keyPath(expr.Key())...)
			if err := t.assign(path, expr.Value()); err != nil {
				return err
			}
		}
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("invalid toml: %v", err)
	}
	return t.finish()
}

type tomlWalker struct {
	b     *builder
	table []string

	repoString   bool
	repoIsObject bool
	owner, name  string
}

func (t *tomlWalker) declareTable(path []string) error {
	switch {
	case len(path) == 1 && path[0] == RepoField:
		t.repoIsObject = true
	case len(path) == 2 && path[0] == EnvironmentSecretsField:
		_, err := t.b.addEnvironment(path[1])
		return err
	}
	return nil
}

func (t *tomlWalker) assign(path []string, value *unstable.Node) error {
	if value == nil || len(path) == 0 {
		return nil
	}
	if value.Kind == unstable.InlineTable {
		if err := t.declareTable(path); err != nil {
			return err
		}
		for it := value.Children(); it.Next(); {
			child := it.Node()
			if child.Kind != unstable.KeyValue {
				continue
			}
			sub := append(append([]string{}, path...), keyPath(child.Key())...)
			if err := t.assign(sub, child.Value()); err != nil {
				return err
			}
		}
		return nil
	}

	switch path[0] {
	case RepoField:
		s, err := tomlScalar(value)
		if err != nil {
			return fmt.Errorf("%q: %w", RepoField, err)
		}
		switch {
		case len(path) == 1:
			t.repoString = true
			t.b.setRepo(ParseRepositoryRef(s))
		case len(path) == 2 && path[1] == "owner":
			t.repoIsObject, t.owner = true, s
		case len(path) == 2 && path[1] == "repo":
			t.repoIsObject, t.name = true, s
		}
	case SecretsField:
		if len(path) != 2 {
			return fmt.Errorf("%w: secrets must be a flat table of name = value", ErrConfig)
		}
		s, err := tomlScalar(value)
		if err != nil {
			return fmt.Errorf("secret %q: %w", path[1], err)
		}
		return t.b.addSecret(path[1], s)
	case EnvironmentSecretsField:
		if len(path) != 3 {
			return fmt.Errorf("%w: %s must be a table of environments holding name = value pairs", ErrConfig, EnvironmentSecretsField)
		}
		s, err := tomlScalar(value)
		if err != nil {
			return fmt.Errorf("environment %q secret %q: %w", path[1], path[2], err)
		}
		return t.b.addEnvironmentSecret(path[1], path[2], s)
	}
	return nil
}

func (t *tomlWalker) finish() error {
	if t.repoIsObject && !t.repoString {
		t.b.setRepo(newRepositoryRef(t.owner, t.name))
	}
	return nil
}

func tomlScalar(n *unstable.Node) (string, error) {
	switch n.Kind { //nolint:exhaustive // everything else is rejected
	case unstable.String, unstable.Integer, unstable.Float, unstable.Bool:
		return string(n.Data), nil
	}
	return "", fmt.Errorf("%w: value must be a string", ErrConfig)
}

func keyPath(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func isKnownField(s string) bool {
	return s == RepoField || s == SecretsField || s == EnvironmentSecretsField
}
