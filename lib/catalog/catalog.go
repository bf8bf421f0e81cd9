// Package catalog maps instance classes to their compute shapes.
package catalog

import "sort"

// Shape describes the compute resources derived from an instance class.
type Shape struct {
	CPUCount  int
	MemoryGiB int
}

// shapes is the static instance-class table. Extending it is a data
// change, not a code change.
var shapes = map[string]Shape{
	"micro":   {CPUCount: 1, MemoryGiB: 1},
	"small":   {CPUCount: 1, MemoryGiB: 2},
	"medium":  {CPUCount: 2, MemoryGiB: 4},
	"large":   {CPUCount: 4, MemoryGiB: 8},
	"xlarge":  {CPUCount: 8, MemoryGiB: 16},
	"2xlarge": {CPUCount: 16, MemoryGiB: 32},
}

// defaultShape is used for unrecognized classes. Unknown classes are
// accepted rather than rejected so that instances imported from an
// upstream provider with an unfamiliar class still get a usable shape.
var defaultShape = Shape{CPUCount: 1, MemoryGiB: 2}

// Lookup returns the shape for an instance class, falling back to the
// default shape for unknown classes.
func Lookup(class string) Shape {
	if s, ok := shapes[class]; ok {
		return s
	}
	return defaultShape
}

// Known reports whether the class is present in the catalog.
func Known(class string) bool {
	_, ok := shapes[class]
	return ok
}

// Classes returns all known class names in sorted order.
func Classes() []string {
	out := make([]string, 0, len(shapes))
	for name := range shapes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
