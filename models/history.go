package models

import "time"

// HistoryEntry is the immutable record of one completed tournament.
type HistoryEntry struct {
	TournamentID     string    `json:"tournament_id" db:"tournament_id"`
	Name             string    `json:"name" db:"name"`
	ParticipantCount int       `json:"participant_count" db:"participant_count"`
	ChampionID       string    `json:"champion_id" db:"champion_id"`
	ChampionName     string    `json:"champion_name" db:"champion_name"`
	CompletedAt      time.Time `json:"completed_at" db:"completed_at"`
}

// Stats aggregates results for one owner (a team id).
type Stats struct {
	OwnerID            string    `json:"owner_id" db:"owner_id"`
	TournamentsEntered int       `json:"tournaments_entered" db:"tournaments_entered"`
	TournamentsWon     int       `json:"tournaments_won" db:"tournaments_won"`
	MatchesWon         int       `json:"matches_won" db:"matches_won"`
	MatchesLost        int       `json:"matches_lost" db:"matches_lost"`
	MatchesForfeited   int       `json:"matches_forfeited" db:"matches_forfeited"`
	UpdatedAt          time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Add accumulates the counters of d into s.
func (s *Stats) Add(d Stats) {
	s.TournamentsEntered += d.TournamentsEntered
	s.TournamentsWon += d.TournamentsWon
	s.MatchesWon += d.MatchesWon
	s.MatchesLost += d.MatchesLost
	s.MatchesForfeited += d.MatchesForfeited
}
