package data

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults
var defaults embed.FS

// ErrNotFound is returned when no data directory holds the requested record.
var ErrNotFound = errors.New("record not found")

// Loader handles reading records from the read-only data layer. Directories
// are searched in order; the embedded defaults come last.
type Loader struct {
	dirs []fs.FS
}

// NewLoader initializes a Loader with the given data directory fallback
// hierarchy.
func NewLoader(dataDirs []string) *Loader {
	fsys := make([]fs.FS, 0, len(dataDirs))
	for _, dir := range dataDirs {
		fsys = append(fsys, os.DirFS(dir))
	}
	return NewLoaderFS(fsys...)
}

// NewLoaderFS is NewLoader over arbitrary filesystems.
func NewLoaderFS(dirs ...fs.FS) *Loader {
	sub, err := fs.Sub(defaults, "defaults")
	if err == nil {
		dirs = append(dirs, sub)
	}
	return &Loader{dirs: dirs}
}

// LoadCombatant looks the name up under characters/ and then monsters/, and
// resolves the equipped weapon.
func (l *Loader) LoadCombatant(name string) (*Combatant, error) {
	var c Combatant
	err := l.load(path.Join("characters", Slug(name)+".yaml"), &c)
	if errors.Is(err, ErrNotFound) {
		err = l.load(path.Join("monsters", Slug(name)+".yaml"), &c)
	}
	if err != nil {
		return nil, err
	}
	c.Normalize()

	if c.WeaponRef != "" {
		w, err := l.LoadWeapon(c.WeaponRef)
		if err != nil {
			return nil, fmt.Errorf("combatant %s: %w", c.Name, err)
		}
		c.Weapon = w
	}
	return &c, nil
}

func (l *Loader) LoadWeapon(name string) (*Weapon, error) {
	var w Weapon
	if err := l.load(path.Join("weapons", Slug(name)+".yaml"), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (l *Loader) LoadSpell(name string) (*Spell, error) {
	var s Spell
	if err := l.load(path.Join("spells", Slug(name)+".yaml"), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (l *Loader) LoadItem(name string) (*Item, error) {
	var i Item
	if err := l.load(path.Join("items", Slug(name)+".yaml"), &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// List returns the record names available in a category ("spells",
// "weapons", ...) across every directory, deduplicated and sorted.
func (l *Loader) List(category string) []string {
	seen := make(map[string]struct{})
	for _, dir := range l.dirs {
		entries, err := fs.ReadDir(dir, category)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".yaml")] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) load(ref string, target any) error {
	for _, dir := range l.dirs {
		b, err := fs.ReadFile(dir, ref)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(b, target); err != nil {
			return fmt.Errorf("failed to decode yaml reference %s: %w", ref, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s in any available data directory", ErrNotFound, ref)
}
