package luarules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region constants
const (
	builderName  = "rules"
	rulesGlobal  = "__rulecheck_rules"
	entrancesKey = "entrances"
	locationsKey = "locations"
)

// ErrNotBoolean is returned when a rule function returns anything but a boolean.
var ErrNotBoolean = errors.New("lua rule did not return a boolean")

// #endregion constants

// #region provider
// Provider runs rule tables written in Lua. The script must define
//
//	function rules(opts) return { entrances = {...}, locations = {...} } end
//
// where each table maps a target name to function(inv) returning a boolean.
// inv maps item names to counts; opts carries tier, name, logic_level,
// obscure and a tags set.
type Provider struct {
	name   string
	chunk  string
	source string
	space  *inventory.Space
}

// NewProvider compiles nothing yet; every RuleSet call gets a fresh
// interpreter running source.
func NewProvider(name, chunk, source string, sp *inventory.Space) *Provider {
	return &Provider{name: name, chunk: chunk, source: source, space: sp}
}

// LoadFile reads a rule script from path.
func LoadFile(name, path string, sp *inventory.Space) (*Provider, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua rules %s: %w", path, err)
	}
	return NewProvider(name, filepath.Base(path), string(src), sp), nil
}

// Name returns the provider's label.
func (p *Provider) Name() string { return p.name }

// RuleSet runs the script's rules(opts) in a new interpreter and exposes the
// returned functions as predicates.
func (p *Provider) RuleSet(_ context.Context, opts difficulty.Options) (rules.RuleSet, error) {
	if err := opts.Tier.Validate(); err != nil {
		return rules.RuleSet{}, err
	}

	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.LoadBuffer(l, p.source, p.chunk, ""); err != nil {
		return rules.RuleSet{}, fmt.Errorf("load lua %s: %w", p.chunk, luaError(l, err))
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return rules.RuleSet{}, fmt.Errorf("run lua %s: %w", p.chunk, luaError(l, err))
	}

	l.Global(builderName)
	if !l.IsFunction(-1) {
		l.SetTop(0)
		return rules.RuleSet{}, fmt.Errorf("lua %s: global %s is not a function", p.chunk, builderName)
	}
	pushOptions(l, opts)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return rules.RuleSet{}, fmt.Errorf("lua %s: %s(%s): %w", p.chunk, builderName, opts.Tier, luaError(l, err))
	}
	if !l.IsTable(-1) {
		l.SetTop(0)
		return rules.RuleSet{}, fmt.Errorf("lua %s: %s must return a table", p.chunk, builderName)
	}
	l.SetGlobal(rulesGlobal)

	in := &interpreter{l: l, space: p.space}
	entrances, err := in.table(entrancesKey)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("lua %s: %w", p.chunk, err)
	}
	locations, err := in.table(locationsKey)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("lua %s: %w", p.chunk, err)
	}
	return rules.RuleSet{Entrances: entrances, Locations: locations}, nil
}

func pushOptions(l *lua.State, opts difficulty.Options) {
	l.NewTable()
	l.PushInteger(int(opts.Tier))
	l.SetField(-2, "tier")
	l.PushString(opts.Tier.String())
	l.SetField(-2, "name")
	l.PushInteger(opts.LogicLevel)
	l.SetField(-2, "logic_level")
	l.PushBoolean(opts.Obscure)
	l.SetField(-2, "obscure")
	l.NewTable()
	for _, tag := range opts.Tags {
		l.PushBoolean(true)
		l.SetField(-2, tag)
	}
	l.SetField(-2, "tags")
}

// luaError adds the error value left on the stack to err when err does not
// already carry it.
func luaError(l *lua.State, err error) error {
	if msg, ok := l.ToString(-1); ok && msg != "" && !strings.Contains(err.Error(), msg) {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// #endregion provider

// #region interpreter
// interpreter owns one Lua state. Lua states are not safe for concurrent
// use, so every call holds mu.
type interpreter struct {
	mu    sync.Mutex
	l     *lua.State
	space *inventory.Space
}

// table lists the functions under key of the built rules and wraps each as a
// predicate.
func (in *interpreter) table(key string) (rules.Table, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	l := in.l
	defer l.SetTop(0)

	t := rules.Table{}
	l.Global(rulesGlobal)
	l.Field(-1, key)
	if l.IsNil(-1) {
		return t, nil
	}
	if !l.IsTable(-1) {
		return nil, fmt.Errorf("%s must be a table", key)
	}

	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) != lua.TypeString {
			return nil, fmt.Errorf("%s has a non-string key", key)
		}
		name, _ := l.ToString(-2)
		if !l.IsFunction(-1) {
			return nil, fmt.Errorf("%s %q is not a function", key, name)
		}
		t[name] = in.predicate(key, name)
		l.Pop(1)
	}
	return t, nil
}

func (in *interpreter) predicate(key, target string) rules.Predicate {
	return func(s inventory.State) (bool, error) {
		return in.call(key, target, s)
	}
}

func (in *interpreter) call(key, target string, s inventory.State) (bool, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	l := in.l
	defer l.SetTop(0)

	l.Global(rulesGlobal)
	l.Field(-1, key)
	l.Field(-1, target)
	in.pushInventory(s)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return false, fmt.Errorf("lua rule: %w", luaError(l, err))
	}
	if !l.IsBoolean(-1) {
		return false, fmt.Errorf("%w: got %s", ErrNotBoolean, lua.TypeNameOf(l, -1))
	}
	return l.ToBoolean(-1), nil
}

func (in *interpreter) pushInventory(s inventory.State) {
	l := in.l
	l.CreateTable(0, in.space.Len())
	for i := 0; i < in.space.Len(); i++ {
		l.PushInteger(s.At(i))
		l.SetField(-2, in.space.Dimension(i).Name)
	}
}

// #endregion interpreter
