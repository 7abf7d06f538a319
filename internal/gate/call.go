package gate

import (
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/requirements"
)

// Discriminable is implemented by domain entities that carry their own
// discriminating subtype, such as an account exposing its account type.
type Discriminable interface {
	Discriminator() string
}

// NamedArg is an explicit discriminator supplied by name at a call site,
// such as an account_type parameter.
type NamedArg struct {
	Name  string
	Value string
}

// Call describes one guarded invocation: the selector being invoked plus
// the arguments a discriminator may be extracted from.
type Call struct {
	// Selector is the guarded method name.
	Selector string

	// Named holds explicit discriminator arguments in the order supplied.
	Named []NamedArg

	// Args holds the positional arguments of the call.
	Args []any

	// Context carries the flag evaluation context for percentage and
	// segment flags.
	Context flags.EvalContext
}

// discriminator resolves the call's discriminator in strict priority order;
// the first match wins:
//
//  1. an explicit named argument,
//  2. the first positional string drawn from the selector's known
//     discriminator vocabulary,
//  3. the subtype of the first Discriminable positional argument,
//  4. otherwise the wildcard, so only wildcard requirements govern.
//
// The ordering is deterministic: a string argument that happens to equal a
// subtype carried elsewhere cannot change the outcome between evaluations.
func (c Call) discriminator(vocabulary map[string]struct{}) string {
	for _, na := range c.Named {
		if na.Value != "" {
			return na.Value
		}
	}

	for _, arg := range c.Args {
		s, ok := arg.(string)
		if !ok {
			continue
		}
		if _, known := vocabulary[s]; known {
			return s
		}
	}

	for _, arg := range c.Args {
		if d, ok := arg.(Discriminable); ok {
			if v := d.Discriminator(); v != "" {
				return v
			}
		}
	}

	return requirements.Wildcard
}

// vocabulary collects the non-wildcard discriminator values declared across
// every flag gating a selector.
func vocabulary(gating map[string]requirements.DiscriminatorSet) map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, set := range gating {
		for v := range set {
			if v != requirements.Wildcard {
				vocab[v] = struct{}{}
			}
		}
	}
	return vocab
}
