package config

import "strings"

// filterArgs keeps only the allowed flags (and their values) from args, so
// each parsing stage can run its own FlagSet without tripping over flags it
// does not define. Both "-f value" and "-f=value" forms are recognised.
func filterArgs(args []string, allowed ...string) []string {
	set := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		set[f] = true
	}

	out := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if set[name] {
				out = append(out, arg)
			}
			continue
		}
		if !set[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
