package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/gosimple/slug"
)

// BracketArchiver uploads JSON snapshots of completed brackets.
type BracketArchiver struct {
	uploader FileUploader
}

func NewBracketArchiver(uploader FileUploader) *BracketArchiver {
	return &BracketArchiver{uploader: uploader}
}

// ArchiveKey builds the object key for a tournament snapshot, e.g.
// "brackets/2026/spring-cup-3f2a9c1e.json".
func ArchiveKey(t *models.Tournament) string {
	name := slug.Make(t.Name)
	if name == "" {
		name = "tournament"
	}
	id := t.ID
	if len(id) > 8 {
		id = id[:8]
	}
	year := t.CreatedAt.Year()
	if t.CompletedAt != nil {
		year = t.CompletedAt.Year()
	}
	return fmt.Sprintf("brackets/%d/%s-%s.json", year, name, id)
}

func (a *BracketArchiver) Archive(ctx context.Context, t *models.Tournament) (*UploadResult, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket %s: %w", t.ID, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(t), "application/json", bytes.NewReader(body))
}
