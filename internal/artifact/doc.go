// Package artifact models downloadable third-party release artifacts.
//
// # Model
//
// A Spec describes one artifact family: where its releases live, how the
// download URL is built from a version and a platform target, what kind
// of payload it is (script, archive, or raw binary), and how it is
// verified. Specs are immutable once validated; resolution produces a
// Resolved value carrying the concrete URLs for one version on one
// architecture.
//
// # Target resolution
//
// Each Spec carries a static table mapping normalized architectures
// ("amd64", "arm64", ...) to the release's own target spelling
// ("x86_64-unknown-linux-musl", "linux-x64", ...). An architecture
// missing from the table is an error unless the Spec declares an
// explicit FallbackTarget; falling back is reported to the caller so it
// can be logged rather than happening silently.
//
// # Sources of specs
//
// The built-in catalog covers the artifact families relget ships support
// for. Additional specs can be loaded from sandboxed Lua files, which
// receive the host platform as a read-only table.
package artifact
