package repository

import (
	"context"
	"log/slog"

	"kassabok/internal/core"
	"kassabok/internal/session"
)

// Scoped binds an OwnerRepository to a session. Every call acts for the
// session's current owner; with nobody logged in, reads are empty, deletes
// report false and saves return the record unsaved.
type Scoped struct {
	repo   *OwnerRepository
	source session.Source
	logger *slog.Logger
}

func NewScoped(repo *OwnerRepository, source session.Source) *Scoped {
	return &Scoped{repo: repo, source: source, logger: repo.logger}
}

func (s *Scoped) owner(ctx context.Context, op string) (core.OwnerID, bool) {
	id, err := session.Require(s.source)
	if err != nil {
		s.logger.WarnContext(ctx, "Repository call without owner", "operation", op, "error", err)
		return 0, false
	}
	return id, true
}

func (s *Scoped) Save(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	owner, ok := s.owner(ctx, "save")
	if !ok {
		return t.WithoutHandle(), nil
	}
	return s.repo.SaveFor(ctx, owner, t)
}

func (s *Scoped) Delete(ctx context.Context, h core.Handle) (bool, error) {
	owner, ok := s.owner(ctx, "delete")
	if !ok {
		return false, nil
	}
	return s.repo.DeleteFor(ctx, owner, h)
}

func (s *Scoped) FindAll(ctx context.Context) ([]core.Transaction, error) {
	owner, ok := s.owner(ctx, "find_all")
	if !ok {
		return []core.Transaction{}, nil
	}
	return s.repo.FindAllFor(ctx, owner)
}

func (s *Scoped) FindByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	owner, ok := s.owner(ctx, "find_by_date_range")
	if !ok {
		return []core.Transaction{}, nil
	}
	return s.repo.FindByDateRangeFor(ctx, owner, from, to)
}

func (s *Scoped) Count(ctx context.Context) (int, error) {
	owner, ok := s.owner(ctx, "count")
	if !ok {
		return 0, nil
	}
	return s.repo.CountFor(ctx, owner)
}

func (s *Scoped) SaveAll(ctx context.Context, ts []core.Transaction) error {
	owner, ok := s.owner(ctx, "save_all")
	if !ok {
		return nil
	}
	return s.repo.SaveAllFor(ctx, owner, ts)
}
