package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"sync"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one versioned schema change with its rollback script.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Catalog is a version-ordered set of migrations.
type Catalog []Migration

var scriptName = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

// LoadCatalog reads NNNNNN_name.up.sql and NNNNNN_name.down.sql pairs from
// dir. Every up script needs a down script and versions must be unique.
func LoadCatalog(fsys fs.FS, dir string) (Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := scriptName.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("migration %q is not named NNNNNN_name.(up|down).sql", entry.Name())
		}
		version, _ := strconv.Atoi(m[1])
		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		}
		if mig.Name != m[2] {
			return nil, fmt.Errorf("migration version %06d used by both %q and %q", version, mig.Name, m[2])
		}
		if m[3] == "up" {
			mig.Up = string(body)
		} else {
			mig.Down = string(body)
		}
	}

	catalog := make(Catalog, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("migration %s needs both up and down scripts", mig)
		}
		catalog = append(catalog, *mig)
	}
	slices.SortFunc(catalog, func(a, b Migration) int { return a.Version - b.Version })
	return catalog, nil
}

var embeddedCatalog = sync.OnceValues(func() (Catalog, error) {
	return LoadCatalog(migrationFS, "migrations")
})

// EmbeddedCatalog returns the migrations compiled into the binary.
func EmbeddedCatalog() (Catalog, error) {
	return embeddedCatalog()
}

// Find returns the migration with version.
func (c Catalog) Find(version int) (Migration, bool) {
	i, ok := slices.BinarySearchFunc(c, version, func(m Migration, v int) int { return m.Version - v })
	if !ok {
		return Migration{}, false
	}
	return c[i], true
}

// Pending returns the migrations whose versions are not in applied.
func (c Catalog) Pending(applied []int) Catalog {
	var out Catalog
	for _, m := range c {
		if !slices.Contains(applied, m.Version) {
			out = append(out, m)
		}
	}
	return out
}

// Unknown returns applied versions this catalog does not ship, ascending.
func (c Catalog) Unknown(applied []int) []int {
	var out []int
	for _, v := range applied {
		if _, ok := c.Find(v); !ok {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}
