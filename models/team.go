package models

const (
	MinTeamSize = 1
	MaxTeamSize = 6
)

// Team is a saved roster owned by the roster editor. Members is an ordered
// list of catalog member ids.
type Team struct {
	ID      string   `json:"id" db:"id"`
	Name    string   `json:"name" db:"name"`
	Members []string `json:"members" db:"members"`
}

// Move is a single attack a member can use in battle.
type Move struct {
	Name     string `json:"name"`
	Power    int    `json:"power"`
	Priority int    `json:"priority"`
}

// Member is a catalog entry describing one roster member's battle stats.
type Member struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HP      int    `json:"hp"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	Speed   int    `json:"speed"`
	Moves   []Move `json:"moves"`
}

// Catalog is the read-only set of members teams can be built from.
type Catalog struct {
	Members []Member
	byID    map[string]int
}

func NewCatalog(members []Member) *Catalog {
	c := &Catalog{Members: members, byID: make(map[string]int, len(members))}
	for i, m := range members {
		c.byID[m.ID] = i
	}
	return c
}

func (c *Catalog) Lookup(id string) (Member, bool) {
	if c == nil {
		return Member{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Member{}, false
	}
	return c.Members[i], true
}
