package project

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Flags are the macro options the indexer understands, in command-line
// order.
type Flags struct {
	Defines   []string
	Undefines []string
}

// ParseFlags collects -D and -U options from compiler arguments, joined
// ("-DX=1") or separate ("-D", "X=1"). Everything else is ignored.
func ParseFlags(args []string) Flags {
	var f Flags
	for _, arg := range normalizeArgs(args) {
		switch {
		case strings.HasPrefix(arg, "-D") && len(arg) > 2:
			f.Defines = append(f.Defines, arg[2:])
		case strings.HasPrefix(arg, "-U") && len(arg) > 2:
			f.Undefines = append(f.Undefines, arg[2:])
		}
	}
	return f
}

// normalizeArgs joins separate -D/-U values onto their option.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if (a == "-D" || a == "-U") && i+1 < len(args) {
			out = append(out, a+args[i+1])
			i++
			continue
		}
		out = append(out, a)
	}
	return out
}

// SplitCommand splits a compile_commands.json "command" string into words
// with shell quoting rules.
func SplitCommand(s string) ([]string, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	return words, nil
}
