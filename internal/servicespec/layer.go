// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicespec

import (
	"fmt"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// LayerLabel is the label of the Pebble layer owned by the operator.
const LayerLabel = "beszel"

type layer struct {
	Summary  string                  `yaml:"summary"`
	Services map[string]layerService `yaml:"services"`
	Checks   map[string]layerCheck   `yaml:"checks"`
}

type layerService struct {
	Override       string            `yaml:"override"`
	Summary        string            `yaml:"summary"`
	Command        string            `yaml:"command"`
	Startup        string            `yaml:"startup"`
	Environment    map[string]string `yaml:"environment,omitempty"`
	OnCheckFailure map[string]string `yaml:"on-check-failure,omitempty"`
}

type layerCheck struct {
	Override  string    `yaml:"override"`
	Level     string    `yaml:"level"`
	Period    string    `yaml:"period"`
	Threshold int       `yaml:"threshold"`
	Exec      layerExec `yaml:"exec"`
}

type layerExec struct {
	Command string `yaml:"command"`
}

// Layer renders the spec as a Pebble layer. Map keys are emitted in sorted
// order, so equal specs always render to identical bytes.
func (s ServiceSpec) Layer() ([]byte, error) {
	l := layer{
		Summary: "Beszel Hub service",
		Services: map[string]layerService{
			ServiceName: {
				Override:    "replace",
				Summary:     "Beszel Hub server monitoring service",
				Command:     s.Command,
				Startup:     "enabled",
				Environment: s.Env(),
				OnCheckFailure: map[string]string{
					s.Check.Name: string(s.Check.OnFailure),
				},
			},
		},
		Checks: map[string]layerCheck{
			s.Check.Name: {
				Override:  "replace",
				Level:     s.Check.Level,
				Period:    fmt.Sprintf("%ds", int(s.Check.Period.Seconds())),
				Threshold: s.Check.Threshold,
				Exec:      layerExec{Command: s.Check.Command},
			},
		},
	}
	out, err := yaml.Marshal(l)
	if err != nil {
		return nil, errors.Annotate(err, "rendering pebble layer")
	}
	return out, nil
}
