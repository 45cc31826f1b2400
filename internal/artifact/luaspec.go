package artifact

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/relget/relget/internal/platform"
)

// LuaParser loads artifact specs from sandboxed Lua files. The host
// platform is injected as a read-only table so specs can branch on
// os/arch/distro when picking URLs and targets.
type LuaParser struct {
	detector platform.Detector
}

// NewLuaParser creates a parser with the given platform detector.
func NewLuaParser(detector platform.Detector) *LuaParser {
	return &LuaParser{detector: detector}
}

// ParseError represents a spec parsing error with a friendly message.
type ParseError struct {
	Message string // user-friendly message
	Detail  string // technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile parses a Lua artifact spec from a file.
func (p *LuaParser) ParseFile(ctx context.Context, path string) (*Spec, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return p.ParseString(ctx, string(code))
}

// ParseString parses a Lua artifact spec from source text.
func (p *LuaParser) ParseString(ctx context.Context, luaCode string) (*Spec, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractSpec(L)
}

// Lua schema field names and globals.
const (
	luaGlobalArtifact    = "artifact"
	luaFieldName         = "name"
	luaFieldVersion      = "version"
	luaFieldKind         = "kind"
	luaFieldURL          = "url"
	luaFieldTargets      = "targets"
	luaFieldFallback     = "fallback_target"
	luaFieldMember       = "member"
	luaFieldChecksumURL  = "checksum_url"
	luaFieldSignatureURL = "signature_url"
	luaFieldReleasesURL  = "releases_url"
	luaFieldMaxSize      = "max_size"
	luaFieldInterpreter  = "interpreter"
)

// extractSpec reads the global "artifact" table out of the Lua state.
func extractSpec(L *lua.LState) (*Spec, error) {
	value := L.GetGlobal(luaGlobalArtifact)
	if value.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'artifact' table",
			Detail:  fmt.Sprintf("expected table, got %s", value.Type()),
		}
	}
	table := value.(*lua.LTable)

	spec := &Spec{
		Name:                 stringField(table, luaFieldName),
		Version:              stringField(table, luaFieldVersion),
		Kind:                 Kind(stringField(table, luaFieldKind)),
		URLTemplate:          stringField(table, luaFieldURL),
		FallbackTarget:       stringField(table, luaFieldFallback),
		Member:               stringField(table, luaFieldMember),
		ChecksumURLTemplate:  stringField(table, luaFieldChecksumURL),
		SignatureURLTemplate: stringField(table, luaFieldSignatureURL),
		ReleasesURL:          stringField(table, luaFieldReleasesURL),
		Interpreter:          stringField(table, luaFieldInterpreter),
	}

	if maxSize := table.RawGetString(luaFieldMaxSize); maxSize.Type() == lua.LTNumber {
		spec.MaxSize = int64(lua.LVAsNumber(maxSize))
	}

	if targetsVal := table.RawGetString(luaFieldTargets); targetsVal.Type() == lua.LTTable {
		targets := map[string]string{}
		targetsVal.(*lua.LTable).ForEach(func(k, v lua.LValue) {
			if k.Type() == lua.LTString && v.Type() == lua.LTString {
				targets[k.String()] = v.String()
			}
		})
		if len(targets) > 0 {
			spec.Targets = targets
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, &ParseError{
			Message: "invalid artifact spec",
			Detail:  err.Error(),
		}
	}
	return spec, nil
}

func stringField(table *lua.LTable, field string) string {
	value := table.RawGetString(field)
	if value.Type() != lua.LTString {
		return ""
	}
	return value.String()
}

// sandboxLuaVM configures a Lua VM to run in a restricted sandbox.
// Spec files describe where to download from; they must not be able to
// execute commands, touch the filesystem, or load external code.
// Safe modules like string, table, and math are preserved.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("debug", lua.LNil)
}

// newSandboxedVM creates a new Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
