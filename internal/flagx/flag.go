// Package flagx contains small helpers for layered configuration: picking
// only the flags a component owns out of os.Args, and overlaying values from
// environment variables.
package flagx

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Supported formats:
//
//	-c conf.json      flag and value as separate arguments
//	--config=x.json   flag and value joined with '='
//
// A value following a flag is kept only if it does not itself look like a flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags returns the config file path given via -c or -config, or ""
// when neither is present. Other arguments are ignored.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// EnvString overwrites *dst with the value of key when it is set and non-empty.
func EnvString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// EnvInt overwrites *dst with the integer value of key. Unparsable values are
// reported and leave *dst untouched.
func EnvInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &EnvError{Key: key, Err: err}
	}
	*dst = n
	return nil
}

// EnvBool overwrites *dst with the boolean value of key.
func EnvBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return &EnvError{Key: key, Err: err}
	}
	*dst = b
	return nil
}

// EnvDuration overwrites *dst with a Go duration string ("30s", "5m").
func EnvDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return &EnvError{Key: key, Err: err}
	}
	*dst = d
	return nil
}

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Key string
	Err error
}

func (e *EnvError) Error() string { return "env " + e.Key + ": " + e.Err.Error() }

func (e *EnvError) Unwrap() error { return e.Err }
