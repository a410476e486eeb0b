package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
	"github.com/danielpatrickdp/rulecheck/internal/rules/luarules"
	"github.com/danielpatrickdp/rulecheck/internal/rules/remote"
	"github.com/danielpatrickdp/rulecheck/internal/rules/tricks"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openProvider builds a provider from "tricks:<path>", "lua:<path>" or
// "grpc:<addr>". The closer releases whatever the provider holds.
func openProvider(name, spec string, sp *inventory.Space) (rules.Provider, io.Closer, error) {
	scheme, target, ok := strings.Cut(spec, ":")
	if !ok || target == "" {
		return nil, nil, fmt.Errorf("provider %q: want tricks:<path>, lua:<path> or grpc:<addr>", spec)
	}

	switch scheme {
	case "tricks":
		t, err := tricks.Load(target, sp)
		if err != nil {
			return nil, nil, err
		}
		p, err := tricks.NewProvider(name, t, sp)
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil
	case "lua":
		p, err := luarules.LoadFile(name, target, sp)
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil
	case "grpc":
		c, err := remote.NewClient(name, target, sp)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	}
	return nil, nil, fmt.Errorf("provider %q: unknown scheme %q", spec, scheme)
}
