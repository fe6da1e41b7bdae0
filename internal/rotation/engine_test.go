package rotation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/visuals/internal/acquire"
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/domain/mocks"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeAcquirer struct {
	calls int
	fn    func() error
}

func (f *fakeAcquirer) Acquire(_ context.Context, _ *config.Config, req acquire.Request, _ func(acquire.Event)) (acquire.Result, error) {
	f.calls++
	if !req.Silent {
		return acquire.Result{}, errors.New("rotation must acquire silently")
	}
	if f.fn == nil {
		return acquire.Result{}, nil
	}
	return acquire.Result{}, f.fn()
}

type fixture struct {
	dir  string
	exec *mocks.MockExecutor
	acq  *fakeAcquirer
	e    *Engine
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		dir:  t.TempDir(),
		exec: mocks.NewMockExecutor(gomock.NewController(t)),
		acq:  &fakeAcquirer{},
	}
	for _, n := range names {
		f.add(t, n)
	}
	f.e = NewEngine(zap.NewNop(), library.New(zap.NewNop(), f.dir), f.acq, f.exec)
	return f
}

func (f *fixture) add(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(name), 0644))
	return p
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

var three = []string{
	"0001_spotlight_A_a.jpg",
	"0002_spotlight_B_b.jpg",
	"0003_spotlight_C_c.jpg",
}

func TestRun_AdvancesFromExpected(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()
	cfg.AutoChange.Index = 1

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path(three[1]), nil)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), f.path(three[1])).Return(nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Advance, out.Transition)
	require.Equal(t, 2, cfg.AutoChange.Index)
	require.False(t, cfg.LastAutoChange.IsZero())
}

func TestRun_SteadyStateAdvances(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()
	cfg.AutoChange.Index = 1

	// The engine painted images[0] on the previous tick
	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path(three[0]), nil)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), f.path(three[1])).Return(nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Advance, out.Transition)
	require.Equal(t, f.path(three[1]), out.Path)
	require.Equal(t, 2, cfg.AutoChange.Index)
}

func TestRun_UnknownCurrentAdvances(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return("", domain.ErrUnsupported)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), f.path(three[0])).Return(nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Advance, out.Transition)
	require.Equal(t, 1, cfg.AutoChange.Index)
}

func TestRun_ResyncsToManualSelection(t *testing.T) {
	names := append(append([]string{}, three...), "0004_spotlight_D_d.jpg", "0005_spotlight_E_e.jpg")
	f := newFixture(t, names...)
	cfg := config.Default()
	cfg.AutoChange.Index = 1

	// The user picked the fourth image by hand; SetWallpaper must not be called
	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path(names[3]), nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Resync, out.Transition)
	require.Equal(t, 4, cfg.AutoChange.Index)
	require.Empty(t, out.Path)
}

func TestRun_DeletedCurrentAdvances(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()
	cfg.AutoChange.Index = 2

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path("0009_spotlight_GONE_g.jpg"), nil)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), f.path(three[2])).Return(nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Advance, out.Transition)
	require.Equal(t, 3, cfg.AutoChange.Index)
}

func TestRun_ExternalWallpaperIsLeftAlone(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()
	cfg.AutoChange.Index = 1

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(filepath.Join(t.TempDir(), "holiday.jpg"), nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, NoOp, out.Transition)
	require.Equal(t, 1, cfg.AutoChange.Index)
	require.True(t, cfg.LastAutoChange.IsZero())
}

func TestRun_ExhaustedPicksHighestSequence(t *testing.T) {
	f := newFixture(t, "0009_spotlight_A_a.jpg", "0010_spotlight_B_b.jpg")
	cfg := config.Default()
	cfg.AutoChange.Index = 2

	var fetched string
	f.acq.fn = func() error {
		fetched = f.add(t, "0011_spotlight_C_c.jpg")
		return nil
	}
	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path("0010_spotlight_B_b.jpg"), nil)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p string) error {
		require.Equal(t, fetched, p)
		return nil
	})

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, FetchThenAdvance, out.Transition)
	require.Equal(t, 1, f.acq.calls)
	require.Equal(t, 3, cfg.AutoChange.Index)
}

func TestRun_EmptyLibraryAndFailedFetchIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.acq.fn = func() error { return domain.ErrNetwork }
	cfg := config.Default()

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return("", nil)

	out, err := f.e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, NoOp, out.Transition)
	require.Equal(t, 0, cfg.AutoChange.Index)
}

func TestRun_PaintFailureKeepsCursor(t *testing.T) {
	f := newFixture(t, three...)
	cfg := config.Default()
	cfg.AutoChange.Index = 1
	boom := errors.New("setter failed")

	f.exec.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(f.path(three[1]), nil)
	f.exec.EXPECT().SetWallpaper(gomock.Any(), f.path(three[1])).Return(boom)

	_, err := f.e.Run(context.Background(), cfg)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, cfg.AutoChange.Index)
	require.True(t, cfg.LastAutoChange.IsZero())
}
