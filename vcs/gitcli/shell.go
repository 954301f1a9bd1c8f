package gitcli

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

var CommandContext = exec.CommandContext

type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return "exec: git " + ArgsString(e.Args) + " failed: " + strings.TrimSpace(e.Stderr) + " (" + e.Err.Error() + ")"
}

func (e *CommandError) Unwrap() error { return e.Err }

func (g *Git) call(ctx context.Context, args []string) ([]byte, error) {
	cmd := CommandContext(ctx, "git", args...)
	cmd.Dir = g.wd

	eb := &bytes.Buffer{}
	ob := &bytes.Buffer{}
	cmd.Stderr = eb
	cmd.Stdout = ob

	g.cfg.Debugf("+ git %s", ArgsString(args))
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{Args: args, Stderr: eb.String(), Err: err}
	}
	return ob.Bytes(), nil
}

// isEmptyRepoError reports whether err came from asking for HEAD in a
// repository with no commits yet.
func isEmptyRepoError(err error) bool {
	cerr, ok := err.(*CommandError)
	if !ok {
		return false
	}
	return strings.Contains(cerr.Stderr, "does not have any commits yet") ||
		strings.Contains(cerr.Stderr, "unknown revision or path not in the working tree") ||
		strings.Contains(cerr.Stderr, "ambiguous argument 'HEAD'")
}

// ArgsString returns a string suitable for copy/paste into the terminal.
func ArgsString(args []string) string {
	b := &bytes.Buffer{}

	for i, arg := range args {
		if strings.ContainsAny(arg, " \n") {
			b.WriteString(`"`)
			b.WriteString(arg)
			b.WriteString(`"`)
		} else {
			b.WriteString(arg)
		}

		if i < len(args)-1 {
			b.WriteString(" ")
		}
	}

	return b.String()
}
