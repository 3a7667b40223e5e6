package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://agentboard.local/schemas/"

// Payload schema names.
const (
	RegisterSchema        = "register.json"
	LoginSchema           = "login.json"
	AgentCreateSchema     = "agent_create.json"
	AgentPatchSchema      = "agent_patch.json"
	ExecutionCreateSchema = "execution_create.json"
	FlowchartNodesSchema  = "flowchart_nodes.json"
	FlowchartEdgesSchema  = "flowchart_edges.json"
)

var payloadSchemas = []string{
	RegisterSchema,
	LoginSchema,
	AgentCreateSchema,
	AgentPatchSchema,
	ExecutionCreateSchema,
	FlowchartNodesSchema,
	FlowchartEdgesSchema,
}

// Validator checks request payloads against the embedded JSON schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(schemaBase+entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", entry.Name(), err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(payloadSchemas))}
	for _, name := range payloadSchemas {
		schema, err := compiler.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// ValidateJSON checks a raw JSON body against the named schema.
func (v *Validator) ValidateJSON(name string, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return NewError("body", "invalid JSON: %v", err)
	}
	if dec.More() {
		return NewError("body", "unexpected data after JSON value")
	}
	return v.Validate(name, doc)
}

// Validate checks an already decoded document against the named schema.
func (v *Validator) Validate(name string, doc interface{}) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return NewError("body", "%v", err)
	}
	return &Error{Fields: leafErrors(verr)}
}

// leafErrors flattens the cause tree into its leaves, which carry the specific failures.
func leafErrors(verr *jsonschema.ValidationError) []FieldError {
	var out []FieldError
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, FieldError{Field: fieldPath(e.InstanceLocation), Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// fieldPath turns a JSON pointer such as "/1/type" into "1.type".
func fieldPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "body"
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(p)
	}
	return strings.Join(parts, ".")
}
