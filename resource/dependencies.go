package resource

import (
	"github.com/pkg/errors"
)

// Dependencies are the resolved collaborator handles passed to a constructor, in the order the
// config listed them. Leaf components receive none.
type Dependencies []*Handle

// Lookup finds a dependency by instance name.
func (d Dependencies) Lookup(name string) (*Handle, error) {
	for _, h := range d {
		if h.Name().Name == name {
			return h, nil
		}
	}
	return nil, &DependencyNotReadyError{Name: name, Reason: errors.New("not passed in as a dependency")}
}

// Names returns the instance names in order.
func (d Dependencies) Names() []string {
	out := make([]string, 0, len(d))
	for _, h := range d {
		out = append(out, h.Name().Name)
	}
	return out
}
