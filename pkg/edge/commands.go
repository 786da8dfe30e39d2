// Package edge: authoritative registry of edge filters.
//
// The batch command line, its usage text and Apply all read this list.
// Keep it in sync when a filter is added.

package edge

import (
	"errors"
	"fmt"

	"github.com/Fepozopo/pgmedge/pkg/raster"
)

// ErrUnknownFilter is returned by Lookup and Apply for names not in Filters.
var ErrUnknownFilter = errors.New("unknown filter")

// FilterSpec describes one registered filter.
type FilterSpec struct {
	Name        string
	Description string
	// Selectable filters may be named on the batch command line.
	Selectable bool
	Run        func(dst, src *raster.Raster)
}

// Filters is the authoritative list of filters.
var Filters = []FilterSpec{
	{
		Name:        "prewitt",
		Description: "Prewitt edge detection",
		Selectable:  true,
		Run:         Prewitt,
	},
	{
		Name:        "sobel",
		Description: "Sobel edge detection",
		Selectable:  true,
		Run:         Sobel,
	},
	{
		Name:        "laplacian",
		Description: "Laplacian edge detection",
		Selectable:  true,
		Run:         Laplacian,
	},
	{
		Name:        "forsen",
		Description: "Forsen edge detection",
		Selectable:  true,
		Run:         Forsen,
	},
	{
		Name:        "negative",
		Description: "Intensity inversion",
		Run:         Negative,
	},
}

// Lookup returns the filter registered under name.
func Lookup(name string) (FilterSpec, error) {
	for _, f := range Filters {
		if f.Name == name {
			return f, nil
		}
	}
	return FilterSpec{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// Selectable returns the filters that may be chosen on the command line.
func Selectable() []FilterSpec {
	var out []FilterSpec
	for _, f := range Filters {
		if f.Selectable {
			out = append(out, f)
		}
	}
	return out
}

// Apply runs the named filter from src into dst.
func Apply(name string, dst, src *raster.Raster) error {
	f, err := Lookup(name)
	if err != nil {
		return err
	}
	f.Run(dst, src)
	return nil
}
