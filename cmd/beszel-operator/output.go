// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"gopkg.in/yaml.v3"
)

// Formatter converts an arbitrary object into a []byte.
type Formatter func(value any) ([]byte, error)

// formatYaml marshals value to a yaml-formatted []byte, unless value is nil.
func formatYaml(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return yaml.Marshal(value)
}

func formatJson(value any) ([]byte, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// defaultFormatters are the formats action output can be written in.
var defaultFormatters = map[string]Formatter{
	"yaml": formatYaml,
	"json": formatJson,
}

// formatterValue implements gnuflag.Value for the --format flag.
type formatterValue struct {
	name       string
	formatters map[string]Formatter
}

// newFormatterValue returns a new formatterValue. The initial Formatter name
// must be present in formatters.
func newFormatterValue(initial string, formatters map[string]Formatter) *formatterValue {
	v := &formatterValue{formatters: formatters}
	if err := v.Set(initial); err != nil {
		panic(err)
	}
	return v
}

// Set stores the chosen formatter name in v.name.
func (v *formatterValue) Set(value string) error {
	if v.formatters[value] == nil {
		return errors.Errorf("unknown format: %s", value)
	}
	v.name = value
	return nil
}

// String returns the chosen formatter name.
func (v *formatterValue) String() string {
	return v.name
}

// doc returns documentation for the --format flag.
func (v *formatterValue) doc() string {
	choices := make([]string, 0, len(v.formatters))
	for name := range v.formatters {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return "specify output format (" + strings.Join(choices, "|") + ")"
}

// output writes values in the format chosen on the command line.
type output struct {
	formatter *formatterValue
}

// addFlags injects the --format flag into f.
func (o *output) addFlags(f *gnuflag.FlagSet, initial string, formatters map[string]Formatter) {
	o.formatter = newFormatterValue(initial, formatters)
	f.Var(o.formatter, "format", o.formatter.doc())
}

// write formats and writes value to w.
func (o *output) write(w io.Writer, value any) error {
	data, err := o.formatter.formatters[o.formatter.name](value)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = fmt.Fprint(w, string(data))
	return errors.Trace(err)
}
