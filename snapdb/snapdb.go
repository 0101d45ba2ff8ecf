// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snapdb persists snn network snapshots in a SQLite database,
// so that stored initial conditions survive across sessions.
package snapdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ccnlab/eyetrack/snn"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned for snapshot names that are not in the database.
var ErrNotFound = errors.New("snapdb: snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name    TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	step    INTEGER NOT NULL,
	data    BLOB NOT NULL
)`

// Info describes a stored snapshot
type Info struct {
	Name    string
	Created time.Time
	Step    int64
}

// DB is a SQLite snapshot store.  It is safe for concurrent use.
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the snapshot database at path, creating its directory as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the file path of the database
func (d *DB) Path() string {
	return d.path
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Save writes snap under name, replacing any previous snapshot of that name.
func (d *DB) Save(ctx context.Context, name string, snap *snn.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", name, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, created, step, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET created = excluded.created, step = excluded.step, data = excluded.data`,
		name, time.Now().UTC().Format(time.RFC3339Nano), snap.Step, data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}
	return nil
}

// Load reads the snapshot stored under name
func (d *DB) Load(ctx context.Context, name string) (*snn.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var data []byte
	err := d.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}
	snap := &snn.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %q: %w", name, err)
	}
	return snap, nil
}

// List returns the stored snapshots, most recent first.
func (d *DB) List(ctx context.Context) ([]Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := d.db.QueryContext(ctx, `SELECT name, created, step FROM snapshots ORDER BY created DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()
	var infos []Info
	for rows.Next() {
		var inf Info
		var created string
		if err := rows.Scan(&inf.Name, &created, &inf.Step); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		inf.Created, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse creation time of %q: %w", inf.Name, err)
		}
		infos = append(infos, inf)
	}
	return infos, rows.Err()
}

// Delete removes the snapshot stored under name
func (d *DB) Delete(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Export saves the in-memory snapshot name of net to the database.
func (d *DB) Export(ctx context.Context, net *snn.Network, name string) error {
	snap, ok := net.Snapshot(name)
	if !ok {
		return fmt.Errorf("%w: %q", snn.ErrNoSnapshot, name)
	}
	return d.Save(ctx, name, snap)
}

// Import loads snapshot name from the database into net, ready for Restore.
func (d *DB) Import(ctx context.Context, net *snn.Network, name string) error {
	snap, err := d.Load(ctx, name)
	if err != nil {
		return err
	}
	return net.Load(name, snap)
}
