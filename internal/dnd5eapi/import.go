package dnd5eapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
)

// Category is one importable kind of record.
type Category struct {
	// Endpoint is listed to find the records.
	Endpoint string
	// Dir is the data directory the YAML files land in.
	Dir string
	fetch func(ctx context.Context, c *Client, ref Reference) (any, bool, error)
}

var (
	Spells = Category{
		Endpoint: "spells",
		Dir:      "spells",
		fetch: func(ctx context.Context, c *Client, ref Reference) (any, bool, error) {
			var s APISpell
			if err := c.FetchItem(ctx, ref.URL, &s); err != nil {
				return nil, false, err
			}
			return s.Spell(), true, nil
		},
	}
	Weapons = Category{
		Endpoint: "equipment-categories/weapon",
		Dir:      "weapons",
		fetch: func(ctx context.Context, c *Client, ref Reference) (any, bool, error) {
			var w APIWeapon
			if err := c.FetchItem(ctx, ref.URL, &w); err != nil {
				return nil, false, err
			}
			weapon, ok := w.Weapon()
			return weapon, ok, nil
		},
	}
)

// Importer writes records under DataDir. Existing files are kept unless
// Force is set.
type Importer struct {
	Client  *Client
	DataDir string
	Force   bool
}

// Progress is told about every record, imported or skipped.
type Progress func(ref Reference)

// List returns the references a category would import.
func (im *Importer) List(ctx context.Context, cat Category) ([]Reference, error) {
	list, err := im.Client.FetchList(ctx, cat.Endpoint)
	if err != nil {
		return nil, err
	}
	return list.Refs(), nil
}

// Import fetches and saves every reference, returning how many files were
// written. A failing record is logged and skipped.
func (im *Importer) Import(ctx context.Context, cat Category, refs []Reference, progress Progress) (int, error) {
	written := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ok, err := im.importOne(ctx, cat, ref)
		if err != nil {
			logger.Log.WithError(err).WithField("index", ref.Index).Warn("failed to import record")
		}
		if ok {
			written++
		}
		if progress != nil {
			progress(ref)
		}
	}
	return written, nil
}

func (im *Importer) importOne(ctx context.Context, cat Category, ref Reference) (bool, error) {
	localPath := filepath.Join(im.DataDir, cat.Dir, ref.Index+".yaml")
	if !im.Force {
		if _, err := os.Stat(localPath); err == nil {
			return false, nil
		}
	}

	rec, ok, err := cat.fetch(ctx, im.Client, ref)
	if err != nil || !ok {
		return false, err
	}
	if err := SaveItem(localPath, rec); err != nil {
		return false, err
	}
	return true, nil
}

// SaveItem encodes data as YAML at path, creating parent directories.
func SaveItem(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return encoder.Close()
}
