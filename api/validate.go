package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

// Request schema names, one per file under schemas/.
const (
	schemaRegister = "register.json"
	schemaLogin    = "login.json"
	schemaExpense  = "expense.json"
	schemaSplit    = "split.json"
	schemaShare    = "share.json"
	schemaRole     = "role.json"
	schemaSettle   = "settle.json"
)

// requestError is a malformed request; it always maps to 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("reading schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	for _, entry := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(entry.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", entry.Name(), err)
		}
	}

	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, entry := range entries {
		schema, err := compiler.Compile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		schemas[entry.Name()] = schema
	}
	return schemas, nil
}

// decode reads a JSON body, checks it against the named schema and then
// unmarshals it into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body too large")
		}
		return badRequest("reading request body: %v", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return badRequest("invalid JSON body")
	}
	if err := s.schemas[schema].Validate(doc); err != nil {
		return badRequest("%s", describe(err))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid request: %v", err)
	}
	return nil
}

// describe flattens a schema violation into "field: message" pairs.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			field := strings.TrimPrefix(v.InstanceLocation, "/")
			if field == "" {
				msgs = append(msgs, v.Message)
			} else {
				msgs = append(msgs, field+": "+v.Message)
			}
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
