// Package rules evaluates validation expressions against read snapshots.
// Rules run over a flat path-keyed view of a schema value through pluggable
// expression engines (expr-lang by default, CEL, and optionally JavaScript).
package rules

import (
	"time"

	"github.com/goliatone/go-settings"
)

// Context carries the inputs of one rule evaluation.
type Context struct {
	// Snapshot is the flat path-keyed view of the value under validation.
	Snapshot map[string]any
	// Path scopes the evaluation to one scalar when the rule targets one.
	Path settings.Path
	// Now anchors time-dependent expressions; zero means time.Now.
	Now      time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx Context) withDefaultNow() Context {
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return ctx.Now
}

func (ctx Context) withDefaultMaps() Context {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx Context) pathLabel() string {
	if len(ctx.Path) == 0 {
		return "<root>"
	}
	return ctx.Path.String()
}

// Flatten builds the flat Snapshot map for a schema value. Keys are dotted
// scalar paths; only live slots contribute, so unselected enum variants are
// absent from the view a rule sees.
func Flatten(view any) map[string]any {
	out := map[string]any{}
	settings.VisitScalars(view, func(s settings.Scalar, live bool) {
		if !live {
			return
		}
		out[s.Path.String()] = s.Default
	})
	return out
}
