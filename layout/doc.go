/*
Package layout computes positioned boxes from a concrete layout tree.

The pipeline is: style resolution (ResolveStyle), measurement (intrinsic sizes
under Exactly/AtMost/Undefined constraints) and layout (absolute positions for
every node via stack, flex and grid placement). Geometry is kept in fractional
dots; rounding happens only when boxes are turned into printer commands.

Dynamic nodes (Template, Conditional, Switch, Each) are expanded by package
binding before layout. Meeting one here is a configuration error.
*/
package layout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'dotpaper.layout'.
func tracer() tracing.Trace {
	return tracing.Select("dotpaper.layout")
}
