// Package store persists named layout snapshots.
//
// The live server saves the current layout of a session on request, and the
// CLI lists and renders saved layouts. Two backends exist: [SQLite] for a
// single machine and [Mongo] for shared deployments. [Open] picks one by
// driver name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nodemap/pkg/graph"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("layout not found")

// Record is a stored layout snapshot.
type Record struct {
	ID        string       `json:"id" bson:"_id"`
	Name      string       `json:"name" bson:"name"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	Layout    graph.Layout `json:"layout" bson:"layout"`
}

// Summary is a record without its layout, as returned by List.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
}

// Store persists records.
type Store interface {
	// Put saves r. An empty ID is replaced by a new one and a zero
	// CreatedAt by the current time; the saved record is returned.
	Put(ctx context.Context, r Record) (Record, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns summaries, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Summary, error)

	Close() error
}

// Drivers supported by Open.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Open opens a store for driver. For sqlite dsn is a file path; for mongo
// it is a connection URI whose path names the database.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3", "":
		return OpenSQLite(dsn)
	case DriverMongo, "mongodb":
		return OpenMongo(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// NewID returns a new record ID.
func NewID() string {
	return uuid.NewString()
}

// prepare fills defaults of a record about to be saved.
func prepare(r Record, now time.Time) (Record, error) {
	if err := r.Layout.Validate(); err != nil {
		return Record{}, fmt.Errorf("invalid layout: %w", err)
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Millisecond)
	if r.Name == "" {
		if root, ok := r.Layout.Root(); ok {
			r.Name = root.Label
		}
	}
	return r, nil
}

func summarize(r Record) Summary {
	return Summary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, Nodes: len(r.Layout.Nodes)}
}
