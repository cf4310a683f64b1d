package events

import "time"

// SchemaBuildStart is emitted before the assembler builds a schema.
type SchemaBuildStart struct {
	Types     int
	Mutations int
}

// SchemaBuildFinish is emitted after a schema was built or validated.
type SchemaBuildFinish struct {
	Types     int
	Mutations int
	Err       error
	Duration  time.Duration
}

// TypeBuilt is emitted the first time a type, field or mutation reference is
// built. Kind is "type", "field" or "mutation".
type TypeBuilt struct {
	Kind     string
	ID       string
	Name     string
	Duration time.Duration
}
