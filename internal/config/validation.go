package config

import "fmt"

// ValidationError reports a single malformed field in a loaded ServerConfig.
type ValidationError struct {
	Server string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Server == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("server %q: %s: %s", e.Server, e.Field, e.Reason)
}

// ValidationErrors collects every ValidationError found by Validate, rather
// than failing on the first.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return "no validation errors"
	}
	if len(es) == 1 {
		return es[0].Error()
	}
	return fmt.Sprintf("%d configuration errors, first: %s", len(es), es[0].Error())
}

func (es ValidationErrors) HasErrors() bool { return len(es) > 0 }

// Validate checks a loaded ServerConfig for structural errors: unknown
// upstream kinds and missing kind-specific required fields. It does not
// attempt to reach any upstream.
func Validate(cfg ServerConfig) ValidationErrors {
	var errs ValidationErrors

	switch cfg.Listener.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, ValidationError{Field: "listener.transport", Reason: fmt.Sprintf("unknown transport %q", cfg.Listener.Transport)})
	}

	for name, up := range cfg.Servers {
		switch up.Kind {
		case UpstreamHTTP:
			if up.URL == "" {
				errs = append(errs, ValidationError{Server: name, Field: "url", Reason: "is required for kind=http"})
			}
			if up.Command != "" {
				errs = append(errs, ValidationError{Server: name, Field: "command", Reason: "cannot be set for kind=http"})
			}
		case UpstreamStdio:
			if up.Command == "" {
				errs = append(errs, ValidationError{Server: name, Field: "command", Reason: "is required for kind=stdio"})
			}
			if up.URL != "" {
				errs = append(errs, ValidationError{Server: name, Field: "url", Reason: "cannot be set for kind=stdio"})
			}
		default:
			errs = append(errs, ValidationError{Server: name, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", up.Kind)})
		}
	}

	return errs
}
