package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_EmptyContext_ReturnsDefault(t *testing.T) {
	require.Same(t, slog.Default(), From(context.Background()))
}

func TestInto_From_RoundTrip(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := Into(context.Background(), l)

	require.Same(t, l, From(ctx))
}

func TestFrom_NilLogger_ReturnsDefault(t *testing.T) {
	ctx := Into(context.Background(), nil)

	require.Same(t, slog.Default(), From(ctx))
}

func TestInto_NilKeepsOuterLogger(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := Into(Into(context.Background(), l), nil)

	require.Same(t, l, From(ctx))
}

func TestWith_NoArgsKeepsContext(t *testing.T) {
	ctx := context.Background()

	require.Equal(t, ctx, With(ctx))
}

func TestWith_AddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(Into(context.Background(), l), slog.String("session_id", "s-1"))
	From(ctx).Info("session_started")

	require.Contains(t, buf.String(), "session_id=s-1")
	require.Contains(t, buf.String(), "msg=session_started")
}
