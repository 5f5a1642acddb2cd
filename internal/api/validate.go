package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema names, one per embedded file under schemas/.
const (
	schemaAttempt     = "attempt"
	schemaAttemptList = "attempt-list"
	schemaResult      = "result"
	schemaResultList  = "result-list"
)

const schemaBaseURL = "schema://quizpath/"

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaCache sync.Map // map[string]*jsonschema.Schema
	compileMu   sync.Mutex
)

// validatePayload checks raw JSON against a named schema before it is
// decoded. Failures are *ErrInvalidPayload.
func validatePayload(name string, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledSchema(name)
	if err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("compile schema %q: %w", name, err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

// compiledSchema returns a cached schema or compiles it with every embedded
// schema registered, so relative $refs between files resolve.
func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compileMu.Lock()
	defer compileMu.Unlock()
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("add resource: %w", err)
		}
	}

	compiled, err := c.Compile(schemaBaseURL + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}
