// ABOUTME: Argument parsing shared by the partdb-admin subcommands
// ABOUTME: Splits positionals from --flags and converts ids and attribute values

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/partdb/partdb-core/internal/store"
	"github.com/partdb/partdb-core/internal/tree"
)

// parsed holds a subcommand's positionals and flags. Value flags may repeat.
type parsed struct {
	positional []string
	values     map[string][]string
	switches   map[string]bool
}

// parseArgs splits args. valueFlags and switchFlags map every accepted
// spelling to its canonical name.
func parseArgs(args []string, valueFlags, switchFlags map[string]string) (parsed, error) {
	p := parsed{values: map[string][]string{}, switches: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, ok := switchFlags[arg]; ok {
			p.switches[name] = true
			continue
		}
		if name, ok := valueFlags[arg]; ok {
			if i+1 >= len(args) {
				return p, fmt.Errorf("%s requires a value", arg)
			}
			p.values[name] = append(p.values[name], args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") && len(arg) > 1 && !isNumber(arg) {
			return p, fmt.Errorf("unknown flag: %s", arg)
		}
		p.positional = append(p.positional, arg)
	}
	return p, nil
}

func (p parsed) value(name string) (string, bool) {
	v := p.values[name]
	if len(v) == 0 {
		return "", false
	}
	return v[len(v)-1], true
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseAttributes converts key=value pairs into typed extras using t's
// columns. Unknown keys are passed through as text for validation to reject.
func parseAttributes(t tree.Table, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("attribute %q must be key=value", pair)
		}
		col, known := t.Column(key)
		if !known {
			out[key] = raw
			continue
		}
		switch col.Kind {
		case store.KindBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("attribute %s expects true or false, got %q", key, raw)
			}
			out[key] = b
		case store.KindInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("attribute %s expects an integer, got %q", key, raw)
			}
			out[key] = n
		default:
			out[key] = raw
		}
	}
	return out, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
