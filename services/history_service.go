package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"golang.org/x/sync/singleflight"
)

const defaultHistoryPageSize = 50

// Archiver сохраняет снимок завершённой сетки вне базы данных.
type Archiver interface {
	Archive(ctx context.Context, t *models.Tournament) (*storage.UploadResult, error)
}

type HistoryService interface {
	RecordCompletion(ctx context.Context, t *models.Tournament) error
	ListHistory(ctx context.Context) iter.Seq2[models.HistoryEntry, error]
	GetStats(ctx context.Context, ownerID string) (*models.Stats, error)
	ResetStats(ctx context.Context, ownerID string) error
}

type historyService struct {
	tx             repositories.Transactor
	historyRepo    repositories.HistoryRepository
	statsRepo      repositories.StatsRepository
	tournamentRepo repositories.TournamentRepository
	archiver       Archiver
	logger         *slog.Logger
	group          singleflight.Group
	now            func() time.Time
	pageSize       int
}

// NewHistoryService builds the history and statistics store. archiver may be nil.
func NewHistoryService(
	tx repositories.Transactor,
	historyRepo repositories.HistoryRepository,
	statsRepo repositories.StatsRepository,
	tournamentRepo repositories.TournamentRepository,
	archiver Archiver,
	logger *slog.Logger,
) HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &historyService{
		tx:             tx,
		historyRepo:    historyRepo,
		statsRepo:      statsRepo,
		tournamentRepo: tournamentRepo,
		archiver:       archiver,
		logger:         logger,
		now:            time.Now,
		pageSize:       defaultHistoryPageSize,
	}
}

// RecordCompletion добавляет запись истории о завершённом турнире и в той же
// транзакции применяет приращения статистики. Повторные вызовы ничего не меняют.
func (s *historyService) RecordCompletion(ctx context.Context, t *models.Tournament) error {
	if t.Status != models.StatusCompleted || t.ChampionID == nil || t.CompletedAt == nil {
		return fmt.Errorf("%w: %s is %s", ErrTournamentNotCompleted, t.ID, t.Status)
	}

	_, err, _ := s.group.Do(t.ID, func() (interface{}, error) {
		return nil, s.record(ctx, t)
	})
	return err
}

func (s *historyService) record(ctx context.Context, t *models.Tournament) error {
	entry := &models.HistoryEntry{
		TournamentID:     t.ID,
		Name:             t.Name,
		ParticipantCount: t.ParticipantCount,
		ChampionID:       *t.ChampionID,
		CompletedAt:      t.CompletedAt.UTC(),
	}
	if champion := t.Participant(*t.ChampionID); champion != nil {
		entry.ChampionName = champion.DisplayName
	}

	var inserted bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		inserted, err = s.historyRepo.Insert(ctx, exec, entry)
		if err != nil {
			return err
		}
		if inserted {
			at := s.now().UTC()
			for _, delta := range StatsDeltas(t) {
				if err := s.statsRepo.Increment(ctx, exec, delta, at); err != nil {
					return fmt.Errorf("stats for %s: %w", delta.OwnerID, err)
				}
			}
		}
		return s.tournamentRepo.MarkHistoryRecorded(ctx, exec, t.ID)
	})
	if err != nil {
		return fmt.Errorf("%w: tournament %s: %w", ErrHistoryWrite, t.ID, err)
	}

	if !inserted {
		s.logger.DebugContext(ctx, "history already recorded", slog.String("tournament_id", t.ID))
		return nil
	}
	s.logger.InfoContext(ctx, "history recorded", slog.String("tournament_id", t.ID), slog.String("champion_id", entry.ChampionID))

	if s.archiver != nil {
		res, err := s.archiver.Archive(ctx, t)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to archive bracket", slog.String("tournament_id", t.ID), slog.Any("error", err))
		} else {
			s.logger.InfoContext(ctx, "bracket archived", slog.String("tournament_id", t.ID), slog.String("key", res.Key))
		}
	}
	return nil
}

// StatsDeltas считает приращения счётчиков по владельцам для завершённого турнира.
// Владелец с несколькими местами в сетке входит в турнир один раз. Порядок
// результата соответствует посеву первого участника владельца.
func StatsDeltas(t *models.Tournament) []models.Stats {
	var order []string
	byOwner := make(map[string]*models.Stats)
	ownerOf := make(map[string]string, len(t.Participants))

	delta := func(owner string) *models.Stats {
		d, ok := byOwner[owner]
		if !ok {
			d = &models.Stats{OwnerID: owner}
			byOwner[owner] = d
			order = append(order, owner)
		}
		return d
	}

	for _, p := range t.Participants {
		ownerOf[p.ID] = p.TeamID
		if _, seen := byOwner[p.TeamID]; !seen {
			delta(p.TeamID).TournamentsEntered++
		}
	}
	for _, m := range t.Matches() {
		if !m.IsFinished() || m.WinnerID == nil {
			continue
		}
		if owner, ok := ownerOf[*m.WinnerID]; ok {
			delta(owner).MatchesWon++
		}
		if owner, ok := ownerOf[m.Loser()]; ok {
			delta(owner).MatchesLost++
		}
		if m.ForfeitedBy != nil {
			if owner, ok := ownerOf[*m.ForfeitedBy]; ok {
				delta(owner).MatchesForfeited++
			}
		}
	}
	if t.ChampionID != nil {
		if owner, ok := ownerOf[*t.ChampionID]; ok {
			delta(owner).TournamentsWon++
		}
	}

	out := make([]models.Stats, 0, len(order))
	for _, owner := range order {
		out = append(out, *byOwner[owner])
	}
	return out
}

// ListHistory yields history entries newest first, fetching pages lazily.
// Each call to the returned sequence starts again from the newest entry.
func (s *historyService) ListHistory(ctx context.Context) iter.Seq2[models.HistoryEntry, error] {
	return func(yield func(models.HistoryEntry, error) bool) {
		var cursor *repositories.HistoryCursor
		for {
			page, err := s.historyRepo.ListPage(ctx, cursor, s.pageSize)
			if err != nil {
				yield(models.HistoryEntry{}, storeError("list history", err))
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &repositories.HistoryCursor{CompletedAt: last.CompletedAt, TournamentID: last.TournamentID}
		}
	}
}

func (s *historyService) GetStats(ctx context.Context, ownerID string) (*models.Stats, error) {
	stats, err := s.statsRepo.Get(ctx, ownerID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Stats{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, storeError("get stats", err)
	}
	return stats, nil
}

// ResetStats обнуляет счётчики владельца, пустой ownerID обнуляет все.
func (s *historyService) ResetStats(ctx context.Context, ownerID string) error {
	if err := s.statsRepo.Reset(ctx, ownerID); err != nil {
		return storeError("reset stats", err)
	}
	s.logger.InfoContext(ctx, "stats reset", slog.String("owner_id", ownerID))
	return nil
}
