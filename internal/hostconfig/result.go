package hostconfig

import "sort"

// Result maps a field name to its failure messages. An empty Result is valid.
type Result map[string][]string

// Add records a failure message for field
func (r Result) Add(field, message string) {
	r[field] = append(r[field], message)
}

// Valid reports whether no rule failed
func (r Result) Valid() bool {
	return len(r) == 0
}

// Has reports whether field has at least one failure
func (r Result) Has(field string) bool {
	return len(r[field]) > 0
}

// Fields returns the failing field names in sorted order
func (r Result) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// check is one stage of a cascade; it returns a message when it fails
type check func() (message string, ok bool)

// cascade runs checks in order and records only the first failure
func (r Result) cascade(field string, checks ...check) {
	for _, c := range checks {
		if msg, ok := c(); !ok {
			r.Add(field, msg)
			return
		}
	}
}
