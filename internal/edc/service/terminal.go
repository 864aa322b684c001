package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/store"
	"github.com/tapstone/edcd/pkg/slogx"
	"github.com/tapstone/edcd/pkg/termid"
)

var (
	// ErrTerminalExists reports a create with an already-registered ID.
	ErrTerminalExists = errors.New("terminal id is already registered")

	// ErrTerminalNotFound reports an operation against an unknown terminal.
	ErrTerminalNotFound = errors.New("terminal not found")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// TerminalService manages the terminal registry.
type TerminalService struct {
	Store store.Store
}

// CreateTerminal registers a new terminal. An empty ID is filled in with a
// generated one; a caller-supplied ID must match the terminal ID format.
func (s *TerminalService) CreateTerminal(ctx context.Context, t domain.Terminal) (domain.Terminal, error) {
	log := slogx.FromContext(ctx)

	if t.ID == "" {
		if !termid.ValidLocationCode(t.Location) {
			return domain.Terminal{}, fmt.Errorf("%w: cannot derive terminal id", termid.ErrInvalidLocation)
		}
		id, err := termid.GenerateRandom(termid.TypeEDC, t.Location)
		if err != nil {
			return domain.Terminal{}, err
		}
		t.ID = id
	} else if !termid.Valid(t.ID) {
		return domain.Terminal{}, termid.ErrInvalidFormat
	}

	if t.Status == "" {
		t.Status = domain.StatusInactive
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Terminals().CreateTerminal(ctx, t); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrTerminalExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Terminal{}, err
	}

	created, err := s.Store.Terminals().GetTerminalByID(ctx, t.ID)
	if err != nil {
		return domain.Terminal{}, err
	}

	log.Info("terminal registered", "terminal_id", created.ID, "status", created.Status)
	return created, nil
}

// GetTerminal fetches a single terminal by ID.
func (s *TerminalService) GetTerminal(ctx context.Context, id string) (domain.Terminal, error) {
	t, err := s.Store.Terminals().GetTerminalByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Terminal{}, ErrTerminalNotFound
		}
		return domain.Terminal{}, err
	}
	return t, nil
}

// UpdateTerminal replaces the mutable fields of an existing terminal.
func (s *TerminalService) UpdateTerminal(ctx context.Context, t domain.Terminal) (domain.Terminal, error) {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Terminals().UpdateTerminal(ctx, t); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTerminalNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Terminal{}, err
	}

	updated, err := s.Store.Terminals().GetTerminalByID(ctx, t.ID)
	if err != nil {
		return domain.Terminal{}, err
	}

	log.Info("terminal updated", "terminal_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// DeleteTerminal removes a terminal and, through the schema's cascade, its
// echo logs.
func (s *TerminalService) DeleteTerminal(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Terminals().DeleteTerminal(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTerminalNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("terminal deleted", "terminal_id", id)
	return nil
}

// ListTerminals returns a page of terminals matching the filter.
func (s *TerminalService) ListTerminals(
	ctx context.Context,
	f domain.TerminalFilter,
	p domain.PageRequest,
) (domain.Page[domain.Terminal], error) {
	p = clampPage(p)
	items, total, err := s.Store.Terminals().ListTerminals(ctx, f, p)
	if err != nil {
		return domain.Page[domain.Terminal]{}, err
	}
	return domain.NewPage(items, p, total), nil
}

// clampPage normalizes pagination input to sane bounds.
func clampPage(p domain.PageRequest) domain.PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}
