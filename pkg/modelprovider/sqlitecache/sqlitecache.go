// Package sqlitecache wraps a typesystem.ModelProvider with a persistent
// SQLite-backed cache of resolved TypeInfo snapshots, keyed by
// (namespace, name) — so a host application backed by a real
// StructureDefinition-resolving ModelProvider (expensive: parses/walks
// FHIR StructureDefinitions) doesn't re-resolve the same type on every
// analysis run across process restarts (SPEC_FULL.md §B: modernc.org/
// sqlite is present in the teacher's go.mod with no retrieved call site;
// this is where it gets a home in this engine). Only GetType — the
// resolution a real provider is most likely to do expensive schema work
// for — is cached; GetElementType/GetChildrenType/IsAssignable/TypeName
// are cheap enough over an already-resolved TypeInfo that they delegate
// straight through.
package sqlitecache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Provider is a typesystem.ModelProvider that caches GetType results in a
// SQLite database at dbPath (":memory:" is valid, for tests).
type Provider struct {
	inner typesystem.ModelProvider
	db    *sql.DB
}

// Open wraps inner with a SQLite-backed GetType cache stored at dbPath,
// creating the backing table if it doesn't already exist.
func Open(dbPath string, inner typesystem.ModelProvider) (*Provider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitecache: opening %s: %w", dbPath, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS type_cache (
		namespace TEXT NOT NULL,
		name      TEXT NOT NULL,
		snapshot  TEXT NOT NULL,
		PRIMARY KEY (namespace, name)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitecache: creating schema: %w", err)
	}
	return &Provider{inner: inner, db: db}, nil
}

// Close releases the underlying SQLite connection.
func (p *Provider) Close() error { return p.db.Close() }

// GetType checks the cache first; on a miss it asks inner and persists the
// result (including negative lookups, so a confirmed-unknown name doesn't
// re-hit inner's expensive resolution path either).
func (p *Provider) GetType(name string) (typesystem.TypeInfo, bool) {
	namespace, bareName := splitName(name)
	if snapshot, ok := p.lookup(namespace, bareName); ok {
		if snapshot.Missing {
			return typesystem.TypeInfo{}, false
		}
		return snapshot.Type, true
	}

	t, found := p.inner.GetType(name)
	p.store(namespace, bareName, cacheSnapshot{Type: t, Missing: !found})
	return t, found
}

func (p *Provider) GetElementType(parent typesystem.TypeInfo, elementName string) (typesystem.TypeInfo, bool) {
	return p.inner.GetElementType(parent, elementName)
}

func (p *Provider) GetChildrenType(parent typesystem.TypeInfo) (typesystem.TypeInfo, bool) {
	return p.inner.GetChildrenType(parent)
}

func (p *Provider) IsAssignable(from, to typesystem.TypeInfo) bool {
	return p.inner.IsAssignable(from, to)
}

func (p *Provider) TypeName(t typesystem.TypeInfo) string {
	return p.inner.TypeName(t)
}

// cacheSnapshot is the JSON-serialized row payload; Missing records a
// negative lookup so it can be cached too.
type cacheSnapshot struct {
	Type    typesystem.TypeInfo
	Missing bool
}

func (p *Provider) lookup(namespace, name string) (cacheSnapshot, bool) {
	var raw string
	err := p.db.QueryRow(`SELECT snapshot FROM type_cache WHERE namespace = ? AND name = ?`, namespace, name).Scan(&raw)
	if err != nil {
		return cacheSnapshot{}, false
	}
	var snap cacheSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return cacheSnapshot{}, false
	}
	return snap, true
}

func (p *Provider) store(namespace, name string, snap cacheSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	p.db.Exec(`INSERT OR REPLACE INTO type_cache (namespace, name, snapshot) VALUES (?, ?, ?)`, namespace, name, string(raw))
}

func splitName(name string) (namespace, bareName string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}
