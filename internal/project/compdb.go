package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Command is one compile_commands.json entry.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Args returns the compiler arguments without the compiler itself.
func (c *Command) Args() ([]string, error) {
	args := c.Arguments
	if len(args) == 0 {
		var err error
		args, err = SplitCommand(c.Command)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.File, err)
		}
	}
	if len(args) > 0 {
		args = args[1:]
	}
	return args, nil
}

// Path resolves the entry's file against its directory.
func (c *Command) Path() string {
	p := c.File
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Directory, p)
	}
	return filepath.Clean(p)
}

// CompDB maps source files to their compiler arguments.
type CompDB struct {
	Path string
	args map[string][]string
}

// LoadCompDB reads a compilation database. When a file is listed more than
// once the first entry wins.
func LoadCompDB(path string) (*CompDB, error) {
	// #nosec G304 -- path is the project's compilation database
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db := &CompDB{Path: path, args: make(map[string][]string, len(cmds))}
	for i := range cmds {
		args, err := cmds[i].Args()
		if err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
		key := cmds[i].Path()
		if _, dup := db.args[key]; !dup {
			db.args[key] = normalizeArgs(args)
		}
	}
	return db, nil
}

// Args returns the arguments recorded for path.
func (db *CompDB) Args(path string) ([]string, bool) {
	if db == nil {
		return nil, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	args, ok := db.args[filepath.Clean(abs)]
	return args, ok
}

// Files lists the database's sources in order.
func (db *CompDB) Files() []string {
	if db == nil {
		return nil
	}
	out := make([]string, 0, len(db.args))
	for f := range db.args {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
