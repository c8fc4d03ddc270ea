package manifest

import (
	"bytes"
	"encoding/json"

	"vacpac/internal/syntax"
)

// Manifest describes the callable surface of a plugin module.
type Manifest struct {
	Name      string             `json:"name"`
	Version   string             `json:"version"`
	Functions []FunctionMetadata `json:"functions"`
}

// FunctionMetadata is the manifest record of one exported function.
type FunctionMetadata struct {
	Identifier string  `json:"identifier"`
	Params     []Param `json:"params"`
	DocString  string  `json:"docString"`
	Async      bool    `json:"async"`
	Generator  bool    `json:"generator"`
}

// Param is a parameter descriptor as it appears in the manifest.
type Param struct {
	Name string `json:"name"`
}

// Entry pairs a surviving declaration with the name it is published under
// and its normalized documentation.
type Entry struct {
	Identifier string
	Decl       *syntax.FunctionDecl
	DocString  string
}

// Build assembles the manifest from entries, preserving their order.
func Build(name, version string, entries []Entry) *Manifest {
	functions := make([]FunctionMetadata, 0, len(entries))
	for _, entry := range entries {
		params := make([]Param, 0, len(entry.Decl.Params))
		for _, p := range entry.Decl.Params {
			params = append(params, Param{Name: p.Name})
		}
		functions = append(functions, FunctionMetadata{
			Identifier: entry.Identifier,
			Params:     params,
			DocString:  entry.DocString,
			Async:      entry.Decl.Async,
			Generator:  entry.Decl.Generator,
		})
	}
	return &Manifest{
		Name:      name,
		Version:   version,
		Functions: functions,
	}
}

// JSON renders the manifest with two-space indentation and a trailing
// newline. HTML characters in doc strings are left unescaped.
func (m *Manifest) JSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
