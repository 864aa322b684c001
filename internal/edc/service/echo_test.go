package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/pkg/hmacsig"
)

func newEchoService(t *testing.T) *EchoService {
	t.Helper()

	verifier, err := hmacsig.New("echo-test-secret", "HmacSHA256", 120*time.Second)
	require.NoError(t, err)

	return &EchoService{Store: newTestStore(t), Verifier: verifier}
}

func registerTerminal(t *testing.T, svc *EchoService, id string) {
	t.Helper()
	require.NoError(t, svc.Store.Terminals().CreateTerminal(context.Background(), domain.Terminal{
		ID:       id,
		Location: "Jakarta",
		Status:   domain.StatusActive,
	}))
}

func TestEchoService_RecordEcho(t *testing.T) {
	svc := newEchoService(t)
	ctx := context.Background()
	registerTerminal(t, svc, "EDC-JKT-001")

	t.Run("valid signature", func(t *testing.T) {
		sig := svc.Verifier.Compute("EDC-JKT-001", time.Now().UTC())
		entry, err := svc.RecordEcho(ctx, sig, "EDC-JKT-001")
		require.NoError(t, err)
		require.NotEmpty(t, entry.ID)
		require.Equal(t, "EDC-JKT-001", entry.TerminalID)
		require.WithinDuration(t, time.Now(), entry.Timestamp, 5*time.Second)
	})

	t.Run("skewed terminal clock inside the window", func(t *testing.T) {
		sig := svc.Verifier.Compute("EDC-JKT-001", time.Now().UTC().Add(-90*time.Second))
		_, err := svc.RecordEcho(ctx, sig, "EDC-JKT-001")
		require.NoError(t, err)
	})

	t.Run("clock outside the window", func(t *testing.T) {
		sig := svc.Verifier.Compute("EDC-JKT-001", time.Now().UTC().Add(-10*time.Minute))
		_, err := svc.RecordEcho(ctx, sig, "EDC-JKT-001")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		_, err := svc.RecordEcho(ctx, "deadbeef", "EDC-JKT-001")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("valid signature for an unregistered terminal", func(t *testing.T) {
		sig := svc.Verifier.Compute("EDC-JKT-999", time.Now().UTC())
		_, err := svc.RecordEcho(ctx, sig, "EDC-JKT-999")
		require.ErrorIs(t, err, ErrTerminalNotFound)
	})

	t.Run("nothing persisted on rejection", func(t *testing.T) {
		page, err := svc.ListEchoLogs(ctx, domain.EchoLogFilter{}, domain.PageRequest{})
		require.NoError(t, err)
		require.EqualValues(t, 2, page.TotalElements, "only the two accepted echoes exist")
	})
}

func TestEchoService_ListEchoLogs(t *testing.T) {
	svc := newEchoService(t)
	ctx := context.Background()
	registerTerminal(t, svc, "EDC-JKT-001")
	registerTerminal(t, svc, "EDC-JKT-002")

	for _, id := range []string{"EDC-JKT-001", "EDC-JKT-001", "EDC-JKT-002"} {
		sig := svc.Verifier.Compute(id, time.Now().UTC())
		_, err := svc.RecordEcho(ctx, sig, id)
		require.NoError(t, err)
	}

	all, err := svc.ListEchoLogs(ctx, domain.EchoLogFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.TotalElements)
	require.Equal(t, 10, all.Size, "default page size applies")

	filtered, err := svc.ListEchoLogs(ctx,
		domain.EchoLogFilter{TerminalID: "EDC-JKT-001"}, domain.PageRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 2, filtered.TotalElements)
	for _, e := range filtered.Content {
		require.Equal(t, "EDC-JKT-001", e.TerminalID)
	}
}
