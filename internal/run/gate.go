package run

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relget/relget/internal/artifact"
)

// AssumeYesEnv skips the confirmation gate when set to a non-empty
// value, for unattended use.
const AssumeYesEnv = "RELGET_ASSUME_YES"

// DefaultPreviewLines is how many script lines the gate shows.
const DefaultPreviewLines = 20

// Gate is the human decision point before remote, unreviewed code is
// executed or installed. Everything before it is reversible; this is
// where that stops.
type Gate struct {
	In           io.Reader
	Out          io.Writer
	AssumeYes    bool
	PreviewLines int
}

// NewGate creates a gate reading from stdin. AssumeYes disables
// prompting entirely, honoring both the flag and the environment
// toggle.
func NewGate(assumeYes bool) *Gate {
	return &Gate{
		In:           os.Stdin,
		Out:          os.Stderr,
		AssumeYes:    assumeYes || os.Getenv(AssumeYesEnv) != "",
		PreviewLines: DefaultPreviewLines,
	}
}

// Confirm shows a preview of the staged payload and waits for explicit
// affirmative input. With AssumeYes set it returns true immediately and
// never touches the input.
func (g *Gate) Confirm(spec *artifact.Spec, payloadPath string) (bool, error) {
	if g.AssumeYes {
		return true, nil
	}

	if err := g.preview(spec, payloadPath); err != nil {
		return false, err
	}

	fmt.Fprintf(g.Out, "Proceed with %s of %s? [y/N]: ", verb(spec.Kind), spec.Name)

	line, err := bufio.NewReader(g.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// preview shows the first lines of a script, or a size summary for
// opaque payloads.
func (g *Gate) preview(spec *artifact.Spec, payloadPath string) error {
	info, err := os.Stat(payloadPath)
	if err != nil {
		return fmt.Errorf("stat payload: %w", err)
	}

	if spec.Kind != artifact.KindScript {
		fmt.Fprintf(g.Out, "%s: %s payload, %d bytes\n", spec.Name, spec.Kind, info.Size())
		return nil
	}

	f, err := os.Open(payloadPath)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()

	n := g.PreviewLines
	if n <= 0 {
		n = DefaultPreviewLines
	}

	fmt.Fprintf(g.Out, "--- first %d lines of %s (%d bytes) ---\n", n, spec.Name, info.Size())
	scanner := bufio.NewScanner(f)
	for i := 0; i < n && scanner.Scan(); i++ {
		fmt.Fprintln(g.Out, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	fmt.Fprintln(g.Out, "---")
	return nil
}

func verb(kind artifact.Kind) string {
	if kind == artifact.KindScript {
		return "execution"
	}
	return "installation"
}
