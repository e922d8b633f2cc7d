// Package flagx lets several components parse their own flags out of one
// shared argument list without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strconv"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args,
// preserving order. Both "-d dsn" and "-d=dsn" forms are recognized; a value
// is taken from the next argument only when it does not start with '-'.
//
// Flags listed in boolFlags never take the next argument as a separate
// value, since the flag package would stop parsing there. A following
// "true" or "false" is folded into "-m=false" form instead.
//
// The result is never nil, so it can be handed to flag.FlagSet.Parse as is.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		if _, ok := bools[arg]; ok {
			if i+1 < len(args) {
				if v, err := strconv.ParseBool(args[i+1]); err == nil {
					filtered = append(filtered, arg+"="+strconv.FormatBool(v))
					i++
					continue
				}
			}
			filtered = append(filtered, arg)
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config file path given with -c or -config.
// Other arguments are ignored. It returns "" when neither flag is present.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
