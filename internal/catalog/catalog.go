// Package catalog holds the read-only list of festival games.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"festreg/internal/models"
)

//go:embed games.yaml
var defaultGames []byte

var ErrUnknownGame = errors.New("game not found")

type Catalog struct {
	games []models.Game
	byID  map[string]models.Game
}

type file struct {
	Games []models.Game `yaml:"games"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultGames))
}

// Open loads the catalog from path, or the embedded one when path is empty.
func Open(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog. Any invalid entry fails the whole load.
func Load(r io.Reader) (*Catalog, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Games)
}

func New(games []models.Game) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]models.Game, len(games))}
	for i, g := range games {
		g.ID = strings.TrimSpace(g.ID)
		if err := validateGame(g); err != nil {
			return nil, fmt.Errorf("game %d (%q): %w", i, g.ID, err)
		}
		if _, dup := c.byID[g.ID]; dup {
			return nil, fmt.Errorf("game %q: duplicate id", g.ID)
		}
		c.byID[g.ID] = g
		c.games = append(c.games, g)
	}
	return c, nil
}

func validateGame(g models.Game) error {
	if g.ID == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("name is required")
	}
	if _, err := models.GameDayFor(g.Day); err != nil {
		return err
	}
	if g.BaseFee < 0 {
		return errors.New("base fee must not be negative")
	}
	switch g.RegistrationType {
	case models.RegistrationIndividual, models.RegistrationTeam, models.RegistrationBoth:
	default:
		return fmt.Errorf("unknown registration type %q", g.RegistrationType)
	}
	if g.MinTeamSize < 1 || g.MaxTeamSize < 1 {
		return errors.New("team sizes must be at least 1")
	}
	if g.MinTeamSize > g.MaxTeamSize {
		return fmt.Errorf("min team size %d exceeds max %d", g.MinTeamSize, g.MaxTeamSize)
	}
	return nil
}

func (c *Catalog) Get(id string) (models.Game, bool) {
	g, ok := c.byID[strings.TrimSpace(id)]
	return g, ok
}

// List returns the games in catalog order.
func (c *Catalog) List() []models.Game {
	out := make([]models.Game, len(c.games))
	copy(out, c.games)
	return out
}

// ByDay returns the games of one day sorted by name.
func (c *Catalog) ByDay(day int) []models.Game {
	var out []models.Game
	for _, g := range c.games {
		if g.Day == day {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
