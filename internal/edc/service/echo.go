package service

import (
	"context"
	"errors"
	"time"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/store"
	"github.com/tapstone/edcd/pkg/hmacsig"
	"github.com/tapstone/edcd/pkg/idx"
	"github.com/tapstone/edcd/pkg/slogx"
)

// ErrInvalidSignature reports an echo callback whose signature matched no
// timestamp inside the tolerance window. It is the only signature failure
// exposed to callers.
var ErrInvalidSignature = hmacsig.ErrInvalidSignature

// EchoService handles signed heartbeat callbacks from terminals in the
// field. Terminals cannot hold bearer tokens, so each callback authenticates
// itself with a time-scoped HMAC over the terminal ID.
type EchoService struct {
	Store    store.Store
	Verifier *hmacsig.Verifier
}

// RecordEcho verifies a terminal's signed heartbeat and persists it.
//
// Signature verification runs before the terminal lookup so an attacker
// without the shared secret learns nothing about which IDs are registered.
func (s *EchoService) RecordEcho(ctx context.Context, signature, terminalID string) (domain.EchoLog, error) {
	log := slogx.FromContext(ctx)

	now := time.Now().UTC()
	offset, err := s.Verifier.Verify(signature, terminalID, now)
	if err != nil {
		log.Info("echo signature rejected", "terminal_id", terminalID)
		return domain.EchoLog{}, err
	}

	entry := domain.EchoLog{
		ID:         idx.New().String(),
		TerminalID: terminalID,
		Timestamp:  now,
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Terminals().GetTerminalByID(ctx, terminalID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTerminalNotFound
			}
			return err
		}
		return tx.EchoLogs().CreateEchoLog(ctx, entry)
	})
	if err != nil {
		return domain.EchoLog{}, err
	}

	log.Info("echo recorded",
		"terminal_id", terminalID,
		"echo_id", entry.ID,
		"clock_offset_seconds", offset,
	)
	return entry, nil
}

// ListEchoLogs returns a page of recorded echoes matching the filter.
func (s *EchoService) ListEchoLogs(
	ctx context.Context,
	f domain.EchoLogFilter,
	p domain.PageRequest,
) (domain.Page[domain.EchoLog], error) {
	p = clampPage(p)
	items, total, err := s.Store.EchoLogs().ListEchoLogs(ctx, f, p)
	if err != nil {
		return domain.Page[domain.EchoLog]{}, err
	}
	return domain.NewPage(items, p, total), nil
}
