// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/felt"
)

// callSpec is a call as written by the user. The entry point is given either
// as a selector or by its name.
type callSpec struct {
	To         string   `yaml:"to"`
	Selector   string   `yaml:"selector"`
	Entrypoint string   `yaml:"entrypoint"`
	Calldata   []string `yaml:"calldata"`
}

func (c callSpec) toCall() (starkbridge.Call, error) {
	to, err := felt.FromHex(c.To)
	if err != nil {
		return starkbridge.Call{}, errors.WithMessage(err, "parsing to")
	}

	var selector felt.Felt
	switch {
	case c.Selector != "" && c.Entrypoint != "":
		return starkbridge.Call{}, errors.New("only one of selector and entrypoint can be given")
	case c.Selector != "":
		if selector, err = felt.FromHex(c.Selector); err != nil {
			return starkbridge.Call{}, errors.WithMessage(err, "parsing selector")
		}
	case c.Entrypoint != "":
		selector = felt.SelectorFromName(c.Entrypoint)
	default:
		return starkbridge.Call{}, errors.New("selector or entrypoint is required")
	}

	calldata := make([]felt.Felt, len(c.Calldata))
	for i := range c.Calldata {
		if calldata[i], err = felt.FromHex(c.Calldata[i]); err != nil {
			return starkbridge.Call{}, errors.WithMessagef(err, "parsing calldata[%d]", i)
		}
	}
	return starkbridge.Call{To: to, Selector: selector, Calldata: calldata}, nil
}

// parseCallFlag parses a call of the form to:selector[:arg,arg...]. A
// selector without 0x prefix is taken as the name of the entry point.
func parseCallFlag(s string) (callSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return callSpec{}, errors.Errorf("call %q must be of the form to:selector[:arg,arg...]", s)
	}
	c := callSpec{To: parts[0]}
	if strings.HasPrefix(parts[1], "0x") || strings.HasPrefix(parts[1], "0X") {
		c.Selector = parts[1]
	} else {
		c.Entrypoint = parts[1]
	}
	if len(parts) == 3 && parts[2] != "" {
		c.Calldata = strings.Split(parts[2], ",")
	}
	return c, nil
}

// readCallsFile reads a yaml list of calls.
func readCallsFile(path string) ([]callSpec, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "reading calls file")
	}
	var specs []callSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, errors.Wrap(err, "parsing calls file")
	}
	return specs, nil
}

// parseCalls combines the calls from the file (if any) and from the flags,
// in this order.
func parseCalls(file string, flags []string) ([]starkbridge.Call, error) {
	var specs []callSpec
	if file != "" {
		var err error
		if specs, err = readCallsFile(file); err != nil {
			return nil, err
		}
	}
	for _, f := range flags {
		spec, err := parseCallFlag(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	calls := make([]starkbridge.Call, 0, len(specs))
	for i := range specs {
		call, err := specs[i].toCall()
		if err != nil {
			return nil, errors.WithMessagef(err, "call %d", i)
		}
		calls = append(calls, call)
	}
	return calls, nil
}
