package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CampaignDirs are created inside every campaign. The data loader reads
// characters, monsters, weapons, spells and items from them; state holds the
// file store.
var CampaignDirs = []string{"characters", "monsters", "weapons", "spells", "items", "state"}

const journalFile = "log.jsonl"

// Campaign is an opened campaign directory.
type Campaign struct {
	World   string
	Name    string
	Path    string
	Journal *Journal
	Store   *FileStore
}

// DataDir returns the directory the data loader should search.
func (c *Campaign) DataDir() string {
	return c.Path
}

func (c *Campaign) Close() error {
	if err := c.Store.Close(); err != nil {
		return err
	}
	return c.Journal.Close()
}

// CampaignManager lays campaigns out as <worlds>/<world>/<campaign>.
type CampaignManager struct {
	WorldsDir string
}

func NewCampaignManager(worldsDir string) *CampaignManager {
	return &CampaignManager{WorldsDir: worldsDir}
}

func (m *CampaignManager) CampaignPath(world, campaign string) string {
	return filepath.Join(m.WorldsDir, world, campaign)
}

// Create makes the campaign layout and opens it. Creating an existing
// campaign is not an error.
func (m *CampaignManager) Create(world, campaign string) (*Campaign, error) {
	if world == "" || campaign == "" {
		return nil, fmt.Errorf("world and campaign names are required")
	}
	path := m.CampaignPath(world, campaign)
	for _, dir := range CampaignDirs {
		full := filepath.Join(path, dir)
		if err := os.MkdirAll(full, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", full, err)
		}
	}
	return m.open(world, campaign, path)
}

// Load opens a campaign that must already exist.
func (m *CampaignManager) Load(world, campaign string) (*Campaign, error) {
	path := m.CampaignPath(world, campaign)
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("campaign not found: %s", path)
	}
	return m.open(world, campaign, path)
}

// List returns the campaign names of a world.
func (m *CampaignManager) List(world string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.WorldsDir, world))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *CampaignManager) open(world, campaign, path string) (*Campaign, error) {
	store, err := NewFileStore(filepath.Join(path, "state"))
	if err != nil {
		return nil, err
	}
	journal, err := OpenJournal(filepath.Join(path, journalFile))
	if err != nil {
		return nil, err
	}
	return &Campaign{World: world, Name: campaign, Path: path, Journal: journal, Store: store}, nil
}
