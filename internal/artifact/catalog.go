package artifact

import (
	"fmt"
	"sort"
)

// Built-in artifact default versions. These are known-good releases;
// callers can override per install.
const (
	DefaultBoreVersion       = "0.6.0"
	DefaultLocaltonetVersion = "latest"
	DefaultTelebitVersion    = "latest"
	DefaultMetasploitVersion = "latest"
)

// catalog holds the built-in artifact specs, keyed by name.
var catalog = map[string]*Spec{
	"bore": {
		Name:        "bore",
		Version:     DefaultBoreVersion,
		Kind:        KindArchive,
		URLTemplate: "https://github.com/ekzhang/bore/releases/download/v{version}/bore-v{version}-{target}.tar.gz",
		Targets: map[string]string{
			"amd64": "x86_64-unknown-linux-musl",
			"arm64": "aarch64-unknown-linux-musl",
			"arm":   "armv7-unknown-linux-musleabihf",
			"386":   "i686-unknown-linux-musl",
		},
		// bore publishes no fallback build; unmapped architectures fail
		// rather than receiving an x86_64 binary that cannot run.
		Member:      "bore",
		ReleasesURL: "https://api.github.com/repos/ekzhang/bore/releases",
	},
	"localtonet": {
		Name:        "localtonet",
		Version:     DefaultLocaltonetVersion,
		Kind:        KindArchive,
		URLTemplate: "https://localtonet.com/download/localtonet-{target}.zip",
		Targets: map[string]string{
			"amd64": "linux-x64",
			"arm64": "linux-arm64",
			"arm":   "linux-arm",
		},
		Member: "localtonet",
	},
	"telebit": {
		Name:        "telebit",
		Version:     DefaultTelebitVersion,
		Kind:        KindScript,
		URLTemplate: "https://get.telebit.io/",
		Interpreter: "bash",
	},
	"metasploit": {
		Name:        "metasploit",
		Version:     DefaultMetasploitVersion,
		Kind:        KindScript,
		URLTemplate: "https://raw.githubusercontent.com/rapid7/metasploit-omnibus/master/config/templates/metasploit-framework-wrappers/msfupdate.erb",
		Interpreter: "bash",
		// The installer script is small; anything beyond this is not
		// the script we expect.
		MaxSize: 1 << 20,
	},
}

// Lookup returns the built-in spec for a name.
func Lookup(name string) (*Spec, error) {
	spec, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown artifact %q (known: %v)", name, Names())
	}
	return spec, nil
}

// Names returns the built-in artifact names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
