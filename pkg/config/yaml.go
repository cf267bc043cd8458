package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(data []byte, b *builder) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("invalid yaml: %v", err)
	}

	// Empty document
	if root.Kind == 0 || len(root.Content) == 0 {
		return errors.New("invalid yaml: empty document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("invalid yaml: top level must be a mapping, got %v", doc.Kind)
	}

	return eachYAMLPair(doc, func(key string, value *yaml.Node) error {
		switch key {
		case RepoField:
			b.setRepo(yamlRepositoryRef(value))
			return nil
		case SecretsField:
			return eachYAMLPair(value, func(name string, v *yaml.Node) error {
				s, err := yamlScalar(v)
				if err != nil {
					return fmt.Errorf("secret %q: %w", name, err)
				}
				return b.addSecret(name, s)
			})
		case EnvironmentSecretsField:
			return eachYAMLPair(value, func(env string, secrets *yaml.Node) error {
				if _, err := b.addEnvironment(env); err != nil {
					return err
				}
				return eachYAMLPair(secrets, func(name string, v *yaml.Node) error {
					s, err := yamlScalar(v)
					if err != nil {
						return fmt.Errorf("environment %q secret %q: %w", env, name, err)
					}
					return b.addEnvironmentSecret(env, name, s)
				})
			})
		}
		return nil
	})
}

// eachYAMLPair visits the key/value pairs of a mapping node in document
// order. A null node is treated as an empty mapping.
func eachYAMLPair(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	n = resolveAlias(n)
	if isYAMLNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrConfig, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: mapping keys must be scalars", ErrConfig, keyNode.Line)
		}
		if err := fn(keyNode.Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func yamlRepositoryRef(n *yaml.Node) (RepositoryRef, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseRepositoryRef(n.Value)
	case yaml.MappingNode:
		var split struct {
			Owner string `yaml:"owner"`
			Repo  string `yaml:"repo"`
		}
		if err := n.Decode(&split); err != nil {
			return RepositoryRef{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		return newRepositoryRef(split.Owner, split.Repo)
	}
	return RepositoryRef{}, fmt.Errorf("%w: %q must be a string or a mapping with owner and repo", ErrConfig, RepoField)
}

func yamlScalar(n *yaml.Node) (string, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: line %d: value must be a scalar", ErrConfig, n.Line)
	}
	if isYAMLNull(n) {
		return "", fmt.Errorf("%w: line %d: value is null", ErrConfig, n.Line)
	}
	return n.Value, nil
}

func isYAMLNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
