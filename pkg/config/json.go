package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// parseJSON walks the document token by token so that object members are
// visited in the order they were written.
func parseJSON(data []byte, b *builder) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("invalid json: %v", err)
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return fmt.Errorf("invalid json: %v", err)
		}
		switch key {
		case RepoField:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("invalid json: %v", err)
			}
			b.setRepo(jsonRepositoryRef(raw))
		case SecretsField:
			err = readJSONObject(dec, func(name string) error {
				value, err := readJSONScalar(dec)
				if err != nil {
					return fmt.Errorf("secret %q: %v", name, err)
				}
				return b.addSecret(name, value)
			})
		case EnvironmentSecretsField:
			err = readJSONObject(dec, func(env string) error {
				if _, err := b.addEnvironment(env); err != nil {
					return err
				}
				return readJSONObject(dec, func(name string) error {
					value, err := readJSONScalar(dec)
					if err != nil {
						return fmt.Errorf("environment %q secret %q: %v", env, name, err)
					}
					return b.addEnvironmentSecret(env, name, value)
				})
			})
		default:
			var skip json.RawMessage
			err = dec.Decode(&skip)
		}
		if err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return fmt.Errorf("invalid json: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid json: trailing data after top level object")
	}
	return nil
}

func jsonRepositoryRef(raw json.RawMessage) (RepositoryRef, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseRepositoryRef(s)
	}
	var split struct {
		Owner string `json:"owner"`
		Repo  string `json:"repo"`
	}
	if err := json.Unmarshal(raw, &split); err != nil {
		return RepositoryRef{}, fmt.Errorf("%w: %q must be a string or an object with owner and repo", ErrConfig, RepoField)
	}
	return newRepositoryRef(split.Owner, split.Repo)
}

// readJSONObject reads an object and calls fn for each member key. fn must
// consume the member value. A null value is treated as an empty object.
func readJSONObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid json: %v", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected an object, got %v", ErrConfig, tok)
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return fmt.Errorf("invalid json: %v", err)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func readJSONScalar(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("invalid json: %v", err)
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return fmt.Sprint(v), nil
	case nil:
		return "", fmt.Errorf("%w: value is null", ErrConfig)
	default:
		return "", fmt.Errorf("%w: value must be a string", ErrConfig)
	}
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
