package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Dosada05/tournament-engine/models"
)

//go:embed catalog.json
var defaultCatalog []byte

type rawCatalog struct {
	MemberList []models.Member `json:"member_list"`
}

// LoadCatalog reads the member catalog at path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*models.Catalog, error) {
	b := defaultCatalog
	source := "built-in catalog"
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}
		source = path
	}
	return ParseCatalog(source, b)
}

func ParseCatalog(source string, b []byte) (*models.Catalog, error) {
	var rc rawCatalog
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if len(rc.MemberList) == 0 {
		return nil, fmt.Errorf("%s: member_list is empty", source)
	}

	seen := make(map[string]struct{}, len(rc.MemberList))
	for _, m := range rc.MemberList {
		if m.ID == "" {
			return nil, fmt.Errorf("%s: member entry missing 'id'", source)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate member id %q", source, m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.HP <= 0 || m.Attack < 0 || m.Defense < 0 || m.Speed < 0 {
			return nil, fmt.Errorf("%s: member %q has invalid stats", source, m.ID)
		}
		if len(m.Moves) == 0 {
			return nil, fmt.Errorf("%s: member %q has no moves", source, m.ID)
		}
		for _, mv := range m.Moves {
			if mv.Name == "" || mv.Power < 0 {
				return nil, fmt.Errorf("%s: member %q has an invalid move", source, m.ID)
			}
		}
	}
	return models.NewCatalog(rc.MemberList), nil
}
