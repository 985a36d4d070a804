package runner

import (
	"github.com/google/uuid"
)

// RunIDGenerator supplies the ID recorded for each run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-ordered UUIDv7 run IDs, so IDs of later runs
// sort after earlier ones.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
