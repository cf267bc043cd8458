// Package dotenv reads .env files without touching the process environment.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultFile is the file read when no path is given.
const DefaultFile = ".env"

// LookupFunc looks up a variable the way os.LookupEnv does.
type LookupFunc func(key string) (string, bool)

// Lookup returns a LookupFunc that consults the process environment first
// and then the variables defined in path. Variables that are set but empty in
// the process environment fall through to the file. When required is false a missing
// file is not an error and only the process environment is consulted.
func Lookup(path string, required bool) (LookupFunc, error) {
	return lookup(path, required, os.LookupEnv)
}

func lookup(path string, required bool, env LookupFunc) (LookupFunc, error) {
	if path == "" {
		path = DefaultFile
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return env, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := env(key); ok && v != "" {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}
