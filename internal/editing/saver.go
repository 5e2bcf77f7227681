package editing

import (
	"context"
	"time"

	"github.com/aura-labs/aura/internal/domain"
	"github.com/aura-labs/aura/internal/shared"
	"github.com/aura-labs/aura/internal/store"
)

// StoreSaver persists edits straight into the repository. Used when the
// editing surface runs in-process with the database.
type StoreSaver struct {
	Repo store.Repository
}

func (s *StoreSaver) Save(ctx context.Context, draftID, title, content string, baseVersion int) (*domain.Draft, error) {
	var draft *domain.Draft
	err := shared.RetrySQLite(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		draft, err = s.Repo.UpdateDraftContent(ctx, draftID, title, content, baseVersion)
		return err
	})
	return draft, err
}
