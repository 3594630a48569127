// Package roster holds the registered players and their side assignment.
// A Roster is a plain in-memory value; callers load it from and save it to
// the store around each mutation.
package roster

import (
	"fmt"
	"scrim-manager/internal/domain"
	"slices"
	"strings"
	"time"
)

type Roster struct {
	players map[string]*domain.Player
	now     func() time.Time
}

func New(players ...domain.Player) *Roster {
	r := &Roster{
		players: make(map[string]*domain.Player, len(players)),
		now:     time.Now,
	}
	for _, p := range players {
		r.players[p.Name] = &p
	}
	return r
}

func (r *Roster) Len() int {
	return len(r.players)
}

func (r *Roster) Add(name string, rating int) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrInvalidName
	}
	if rating < 0 {
		return domain.Player{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, rating)
	}
	if _, ok := r.players[name]; ok {
		return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, name)
	}

	now := r.now()
	p := &domain.Player{
		Name:      name,
		Rating:    rating,
		Side:      domain.SideUnassigned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.players[name] = p
	return *p, nil
}

// Update changes the rating and selected hero of an existing player.
func (r *Roster) Update(name string, rating int, hero string) (domain.Player, error) {
	p, err := r.lookup(name)
	if err != nil {
		return domain.Player{}, err
	}
	if rating < 0 {
		return domain.Player{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, rating)
	}
	p.Rating = rating
	p.Hero = strings.TrimSpace(hero)
	p.UpdatedAt = r.now()
	return *p, nil
}

func (r *Roster) Remove(name string) error {
	p, err := r.lookup(name)
	if err != nil {
		return err
	}
	delete(r.players, p.Name)
	return nil
}

func (r *Roster) Assign(name string, side domain.Side) error {
	if side != domain.SideUnassigned && !side.Playable() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSide, side)
	}
	p, err := r.lookup(name)
	if err != nil {
		return err
	}
	p.Side = side
	p.UpdatedAt = r.now()
	return nil
}

// Swap moves an assigned player to the other side.
func (r *Roster) Swap(name string) (domain.Side, error) {
	p, err := r.lookup(name)
	if err != nil {
		return domain.SideUnassigned, err
	}
	if !p.Side.Playable() {
		return domain.SideUnassigned, fmt.Errorf("%w: %s", domain.ErrNotAssigned, name)
	}
	p.Side = p.Side.Opposite()
	p.UpdatedAt = r.now()
	return p.Side, nil
}

func (r *Roster) TotalRating(side domain.Side) int {
	total := 0
	for _, p := range r.players {
		if p.Side == side {
			total += p.Rating
		}
	}
	return total
}

func (r *Roster) Get(name string) (domain.Player, error) {
	p, err := r.lookup(name)
	if err != nil {
		return domain.Player{}, err
	}
	return *p, nil
}

// Players returns a snapshot ordered by name.
func (r *Roster) Players() []domain.Player {
	out := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Player) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Members lists the names on one side, ordered by name.
func (r *Roster) Members(side domain.Side) []string {
	var names []string
	for _, p := range r.Players() {
		if p.Side == side {
			names = append(names, p.Name)
		}
	}
	return names
}

// Apply overwrites every player's side with the candidate's partition.
// Players missing from the candidate become unassigned.
func (r *Roster) Apply(c domain.Candidate) {
	now := r.now()
	for _, p := range r.players {
		p.Side = domain.SideUnassigned
		p.UpdatedAt = now
	}
	for _, name := range c.SideA {
		if p, ok := r.players[name]; ok {
			p.Side = domain.SideA
		}
	}
	for _, name := range c.SideB {
		if p, ok := r.players[name]; ok {
			p.Side = domain.SideB
		}
	}
}

// lookup trims name the same way Add does before storing it.
func (r *Roster) lookup(name string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	p, ok := r.players[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return p, nil
}
