package juju

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Application is one application of a topology snapshot.
type Application struct {
	// Name is the application name, unique within the snapshot.
	Name string

	// Units are the unit names in the order juju reported them.
	Units []string
}

// Topology is an immutable point-in-time view of the model's applications
// and their units, as reported by `juju status --format=json`.
type Topology struct {
	applications []Application
	index        map[string]int
}

// ParseStatus builds a Topology from the JSON document printed by
// `juju status --format=json`. Only the keys of "applications" and of each
// application's "units" object are read; everything else is ignored.
//
// Parameters:
//   - data: Raw status output
//
// Returns:
//   - *Topology: The snapshot, preserving document order
//   - error: ErrMalformedStatus if data is not JSON or lacks an applications object
func ParseStatus(data []byte) (*Topology, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: output is not valid JSON", ErrMalformedStatus)
	}
	apps := gjson.GetBytes(data, "applications")
	if !apps.IsObject() {
		return nil, fmt.Errorf("%w: missing applications object", ErrMalformedStatus)
	}

	topo := &Topology{index: make(map[string]int)}
	apps.ForEach(func(name, app gjson.Result) bool {
		entry := Application{Name: name.String()}
		if units := app.Get("units"); units.IsObject() {
			units.ForEach(func(unit, _ gjson.Result) bool {
				entry.Units = append(entry.Units, unit.String())
				return true
			})
		}
		topo.index[entry.Name] = len(topo.applications)
		topo.applications = append(topo.applications, entry)
		return true
	})
	return topo, nil
}

// ApplicationNames returns the application names in document order.
func (t *Topology) ApplicationNames() []string {
	names := make([]string, 0, len(t.applications))
	for _, app := range t.applications {
		names = append(names, app.Name)
	}
	return names
}

// HasApplication reports whether the snapshot contains the application.
func (t *Topology) HasApplication(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Units returns a copy of the unit names of an application, or nil if the
// application is unknown or has no units.
func (t *Topology) Units(application string) []string {
	i, ok := t.index[application]
	if !ok || len(t.applications[i].Units) == 0 {
		return nil
	}
	return append([]string(nil), t.applications[i].Units...)
}

// Applications returns a copy of every application in document order.
func (t *Topology) Applications() []Application {
	out := make([]Application, len(t.applications))
	for i, app := range t.applications {
		out[i] = Application{Name: app.Name, Units: append([]string(nil), app.Units...)}
	}
	return out
}
