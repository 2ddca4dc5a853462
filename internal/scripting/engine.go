package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/propcraft/server/internal/data"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for content hooks. An LState is not
// goroutine safe and hooks are invoked from concurrent action-request
// goroutines, so every call serialises on mu.
type Engine struct {
	mu      sync.Mutex
	vm      *lua.LState
	catalog *data.CatalogTable
	log     *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory.
func NewEngine(scriptsDir string, catalog *data.CatalogTable, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, catalog: catalog, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// ExamineText calls the Lua examine_text hook to compose the description a
// participant sees when examining an object. Falls back to the template
// name when the hook is missing or misbehaves.
func (e *Engine) ExamineText(templateID string) string {
	tpl := e.catalog.Get(templateID)
	fallback := templateID
	if tpl != nil {
		fallback = tpl.Name
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("examine_text")
	if fn == lua.LNil {
		return fallback
	}

	t := e.vm.NewTable()
	t.RawSetString("template_id", lua.LString(templateID))
	if tpl != nil {
		t.RawSetString("name", lua.LString(tpl.Name))
		t.RawSetString("base_value", lua.LNumber(tpl.BaseValue))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua examine_text error", zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	s, ok := result.(lua.LString)
	if !ok {
		e.log.Error("lua examine_text returned non-string")
		return fallback
	}
	return string(s)
}

// ActionApplied calls the Lua on_action_applied hook after a mutation
// lands. The hook has no return value and cannot veto the action.
func (e *Engine) ActionApplied(act, templateID, participantID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("on_action_applied")
	if fn == lua.LNil {
		return
	}

	t := e.vm.NewTable()
	t.RawSetString("action", lua.LString(act))
	t.RawSetString("template_id", lua.LString(templateID))
	t.RawSetString("participant", lua.LString(participantID))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua on_action_applied error", zap.Error(err))
	}
}
