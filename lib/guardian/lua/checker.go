// Package lua provides Lua scoring plugins for the risk engine.
// Each script defines a "score" function which takes an input table with msg, normalized and domains
// fields and returns a weight (number) and optional details (string).
package lua

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/naijacyber/cyberguardian/lib/guardian"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// Checker loads Lua scripts and exposes them as engine scorers.
// Lua state is not goroutine-safe, all calls go through the mutex.
type Checker struct {
	mu      sync.Mutex
	vm      *lua.LState
	scripts map[string]*lua.LFunction
}

// NewChecker creates a new Checker with helpers registered
func NewChecker() *Checker {
	res := &Checker{
		vm:      lua.NewState(),
		scripts: make(map[string]*lua.LFunction),
	}
	res.registerHelpers()
	return res
}

// LoadScript loads a Lua script and registers it under the file name without extension
func (c *Checker) LoadScript(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(path)
}

// ReloadScript reloads a script, replacing the previously loaded version
func (c *Checker) ReloadScript(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(path)
}

// RemoveScript unregisters the script loaded from path
func (c *Checker) RemoveScript(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scripts, scriptName(path))
}

// LoadDirectory loads all *.lua scripts from a directory
func (c *Checker) LoadDirectory(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return fmt.Errorf("failed to list lua scripts in %s: %w", dir, err)
	}
	for _, file := range files {
		if err := c.LoadScript(file); err != nil {
			return fmt.Errorf("failed to load script %s: %w", file, err)
		}
	}
	return nil
}

// Names returns sorted names of loaded scripts
func (c *Checker) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.scripts))
	for name := range c.scripts {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Scorers returns engine scorers for all loaded scripts, sorted by name.
// A scorer looks up its script on every call, so reloaded scripts take effect immediately
// and removed ones score nothing.
func (c *Checker) Scorers() []guardian.NamedScorer {
	names := c.Names()
	res := make([]guardian.NamedScorer, 0, len(names))
	for _, name := range names {
		res = append(res, guardian.NamedScorer{Name: "lua-" + name, Score: c.scorer(name)})
	}
	return res
}

// Close cleans up resources used by the Checker
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vm.Close()
}

func (c *Checker) load(path string) error {
	// reset the global so a script without score function doesn't pick up the previous one
	c.vm.SetGlobal("score", lua.LNil)
	if err := c.vm.DoFile(path); err != nil {
		return fmt.Errorf("failed to load lua script: %w", err)
	}
	fn := c.vm.GetGlobal("score")
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("script %s must define a 'score' function", path)
	}
	c.scripts[scriptName(path)] = fn.(*lua.LFunction)
	return nil
}

func (c *Checker) scorer(name string) guardian.Scorer {
	return func(in riskcheck.Input) riskcheck.Signal {
		c.mu.Lock()
		defer c.mu.Unlock()

		res := riskcheck.Signal{Name: "lua-" + name, Category: riskcheck.CategoryPlugin}
		fn, ok := c.scripts[name]
		if !ok {
			return res
		}

		inTable := c.vm.NewTable()
		inTable.RawSetString("msg", lua.LString(in.Msg))
		inTable.RawSetString("normalized", lua.LString(in.Normalized))
		domains := c.vm.NewTable()
		for i, d := range in.Domains {
			domains.RawSetInt(i+1, lua.LString(d))
		}
		inTable.RawSetString("domains", domains)

		if err := c.vm.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, inTable); err != nil {
			res.Error = err
			res.Details = "error executing lua script: " + err.Error()
			return res
		}
		weight, details := c.vm.Get(-2), c.vm.Get(-1)
		c.vm.Pop(2)

		num, ok := weight.(lua.LNumber)
		if !ok {
			res.Error = fmt.Errorf("score must return a number, got %s", weight.Type())
			res.Details = res.Error.Error()
			return res
		}
		res.Weight = float64(num)
		if res.Weight < 0 || math.IsNaN(res.Weight) || math.IsInf(res.Weight, 0) {
			res.Weight = 0
		}
		if details != lua.LNil {
			res.Details = details.String()
		}
		return res
	}
}

func scriptName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
