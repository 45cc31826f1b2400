package artifact

import (
	"testing"
)

func TestCatalogSpecsAreValid(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spec, err := Lookup(name)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if err := spec.Validate(); err != nil {
				t.Errorf("built-in spec is invalid: %v", err)
			}
			if spec.Version == "" {
				t.Error("built-in spec has no default version")
			}
		})
	}
}

func TestCatalogLookupUnknown(t *testing.T) {
	_, err := Lookup("ngrok")
	if err == nil {
		t.Fatal("expected error for unknown artifact")
	}
}

func TestCatalogBoreHasNoSilentFallback(t *testing.T) {
	spec, err := Lookup("bore")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec.FallbackTarget != "" {
		t.Error("bore must fail on unmapped architectures, not fall back")
	}

	_, _, rtErr := spec.ResolveTarget("s390x")
	if rtErr == nil {
		t.Error("expected unsupported architecture error for s390x")
	}
}

func TestCatalogBoreURL(t *testing.T) {
	spec, err := Lookup("bore")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	resolved, err := spec.Resolve("0.6.0", "amd64", "linux")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := "https://github.com/ekzhang/bore/releases/download/v0.6.0/bore-v0.6.0-x86_64-unknown-linux-musl.tar.gz"
	if resolved.URL != want {
		t.Errorf("bore URL mismatch:\ngot:  %s\nwant: %s", resolved.URL, want)
	}
}

func TestCatalogScriptKinds(t *testing.T) {
	for _, name := range []string{"telebit", "metasploit"} {
		spec, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if spec.Kind != KindScript {
			t.Errorf("%s: kind = %s, want script", name, spec.Kind)
		}
		if spec.InterpreterOrDefault() == "" {
			t.Errorf("%s: no interpreter", name)
		}
	}
}
