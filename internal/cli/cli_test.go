package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/visuals/internal/acquire"
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/domain/mocks"
	"github.com/genricoloni/visuals/internal/fetcher"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/genricoloni/visuals/internal/logging"
	"github.com/genricoloni/visuals/internal/retention"
	"github.com/genricoloni/visuals/internal/rotation"
	"github.com/genricoloni/visuals/internal/schedule"
	"github.com/genricoloni/visuals/internal/source"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeAcquirer struct {
	requests []acquire.Request
	result   acquire.Result
	err      error
	write    func(cfg *config.Config) []library.Image
}

func (f *fakeAcquirer) Acquire(_ context.Context, cfg *config.Config, req acquire.Request, progress func(acquire.Event)) (acquire.Result, error) {
	f.requests = append(f.requests, req)
	res := f.result
	if f.write != nil {
		res.Accepted = f.write(cfg)
		for _, img := range res.Accepted {
			progress(acquire.Event{Kind: acquire.EventAccepted, Image: img})
		}
	}
	return res, f.err
}

type fakeRotator struct {
	calls int
	err   error
}

func (f *fakeRotator) Run(_ context.Context, cfg *config.Config) (rotation.Outcome, error) {
	f.calls++
	if f.err != nil {
		return rotation.Outcome{}, f.err
	}
	cfg.AutoChange.Index++
	return rotation.Outcome{Transition: rotation.Advance, Index: cfg.AutoChange.Index}, nil
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) Run(context.Context, *config.Config) (retention.Report, error) {
	f.calls++
	return retention.Report{}, nil
}

type fakeBackend struct {
	registered bool
	err        error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Register(context.Context, domain.Frequency, string) error {
	if b.err != nil {
		return b.err
	}
	b.registered = true
	return nil
}

func (b *fakeBackend) Unregister(context.Context) error {
	b.registered = false
	return nil
}

func (b *fakeBackend) Query(context.Context) (schedule.Registration, error) {
	return schedule.Registration{Registered: b.registered}, nil
}

type harness struct {
	params   Params
	store    *config.Store
	lib      *library.Library
	executor *mocks.MockExecutor
	acquirer *fakeAcquirer
	rotator  *fakeRotator
	cleaner  *fakeCleaner
	backend  *fakeBackend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := zap.NewNop()
	paths := config.Paths{ConfigDir: t.TempDir(), WallpaperDir: t.TempDir()}

	h := &harness{
		store:    config.NewStore(logger, paths),
		lib:      library.New(logger, paths.WallpaperDir),
		executor: mocks.NewMockExecutor(ctrl),
		acquirer: &fakeAcquirer{},
		rotator:  &fakeRotator{},
		cleaner:  &fakeCleaner{},
		backend:  &fakeBackend{},
	}
	h.params = Params{
		Logger:    logger,
		Store:     h.store,
		Registry:  source.NewRegistry(logger, fetcher.NewHTTPFetcher(logger)),
		Library:   h.lib,
		Acquirer:  h.acquirer,
		Rotation:  h.rotator,
		Retention: h.cleaner,
		Schedule:  schedule.NewManager(logger, h.backend),
		Executor:  h.executor,
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(h.params)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return cfg
}

func (h *harness) seed(t *testing.T, names ...string) []string {
	t.Helper()
	var paths []string
	for _, n := range names {
		p := filepath.Join(h.lib.Dir(), n)
		require.NoError(t, os.WriteFile(p, []byte(n), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestModeFor(t *testing.T) {
	tests := []struct {
		args []string
		want logging.Mode
	}{
		{args: nil, want: logging.ModeInteractive},
		{args: []string{"auto-change"}, want: logging.ModeSilent},
		{args: []string{"--verbose", "silent-uninstall"}, want: logging.ModeSilent},
		{args: []string{"fetch", "auto-change"}, want: logging.ModeInteractive},
		{args: []string{"status"}, want: logging.ModeInteractive},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			require.Equal(t, tt.want, ModeFor(tt.args))
		})
	}
}

func TestAutoChange_SilentAndWithoutCleanup(t *testing.T) {
	h := newHarness(t)
	h.rotator.err = domain.ErrNetwork

	out, err := h.run(t, "", "auto-change")
	require.NoError(t, err, "silent commands never fail")
	require.Empty(t, out)
	require.Equal(t, 1, h.rotator.calls)
	require.Zero(t, h.cleaner.calls)
}

func TestAutoChange_PersistsRotation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "auto-change")
	require.NoError(t, err)
	require.Equal(t, 1, h.config(t).AutoChange.Index)
}

func TestInteractiveCommandsRunCleanup(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "status")
	require.NoError(t, err)
	require.Equal(t, 1, h.cleaner.calls)
}

func TestSilentUninstall_ClearsSchedule(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "set", "6h")
	require.NoError(t, err)
	require.True(t, h.backend.registered)

	_, err = h.run(t, "", "silent-uninstall")
	require.NoError(t, err)
	require.False(t, h.backend.registered)
	require.False(t, h.config(t).AutoChange.Enabled)
}

func TestSet_RetriesInvalidFrequency(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "30m\n25\n21:30\n", "schedule", "set")
	require.NoError(t, err)
	require.Contains(t, out, "invalid frequency")
	require.Contains(t, out, "daily at 21:30")

	cfg := h.config(t)
	require.True(t, cfg.AutoChange.Enabled)
	require.Equal(t, domain.DailyAt(domain.TimeOfDay{Hour: 21, Minute: 30}), cfg.Frequency())
}

func TestSet_BackendFailureLeavesScheduleDisabled(t *testing.T) {
	h := newHarness(t)
	h.backend.err = errors.New("systemctl: not found")

	_, err := h.run(t, "", "s", "auto")
	require.Error(t, err)
	require.False(t, h.config(t).AutoChange.Enabled)
}

func TestSource_PromptsForMissingKey(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "secret-key\n", "src", "unsplash")
	require.NoError(t, err)
	require.Contains(t, out, "needs an API key")

	cfg := h.config(t)
	require.Equal(t, domain.SourceUnsplash, cfg.Source)
	require.Equal(t, "secret-key", cfg.Credential(domain.SourceUnsplash))
}

func TestSource_EmptyKeyKeepsSource(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "\n", "source", "pexels")
	require.Error(t, err)
	require.Equal(t, domain.SourceSpotlight, h.config(t).Source)
}

func TestSource_ListShowsBudget(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "source", "wallhaven")
	require.NoError(t, err)

	out, err := h.run(t, "", "source")
	require.NoError(t, err)
	require.Contains(t, out, "* wallhaven")
	require.Contains(t, out, "no API key")
	require.Contains(t, out, "requests left")
}

func TestRemoveKey(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "source", "pexels", "--key", "px")
	require.NoError(t, err)

	out, err := h.run(t, "", "rm")
	require.NoError(t, err)
	require.Contains(t, out, "API key cleared")
	require.Empty(t, h.config(t).Credential(domain.SourcePexels))
	require.Equal(t, domain.SourcePexels, h.config(t).Source)
}

func TestReset_KeepsScheduleAndCounters(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "source", "pexels", "--key", "px")
	require.NoError(t, err)
	_, err = h.run(t, "", "set", "every:3h")
	require.NoError(t, err)

	out, err := h.run(t, "no\n", "reset")
	require.NoError(t, err)
	require.Contains(t, out, "cancelled")
	require.Equal(t, domain.SourcePexels, h.config(t).Source)

	_, err = h.run(t, "", "reset", "--yes")
	require.NoError(t, err)

	cfg := h.config(t)
	require.Equal(t, domain.SourceSpotlight, cfg.Source)
	require.Empty(t, cfg.Credential(domain.SourcePexels))
	require.True(t, cfg.AutoChange.Enabled)
	require.Equal(t, domain.EveryHours(3), cfg.Frequency())
}

func TestChange_SetsWallpaperAndCursor(t *testing.T) {
	h := newHarness(t)
	paths := h.seed(t, "0001_spotlight_A_a.jpg", "0002_spotlight_B_b.jpg", "0003_spotlight_C_c.jpg")

	h.executor.EXPECT().SetWallpaper(gomock.Any(), paths[1]).Return(nil)

	out, err := h.run(t, "", "c", "2")
	require.NoError(t, err)
	require.Contains(t, out, "0002_spotlight_B_b.jpg")
	require.Equal(t, 2, h.config(t).AutoChange.Index)
}

func TestChange_PromptsForSequence(t *testing.T) {
	h := newHarness(t)
	paths := h.seed(t, "0001_spotlight_A_a.jpg", "0007_wallhaven_B_b.png")

	h.executor.EXPECT().SetWallpaper(gomock.Any(), paths[1]).Return(nil)

	_, err := h.run(t, "x\n7\n", "change")
	require.NoError(t, err)
	require.Equal(t, 2, h.config(t).AutoChange.Index)
}

// racingInput removes a file the first time the prompt reads, as a
// concurrent cleanup would
type racingInput struct {
	remove string
	answer *strings.Reader
}

func (r *racingInput) Read(b []byte) (int, error) {
	if r.remove != "" {
		_ = os.Remove(r.remove)
		r.remove = ""
	}
	return r.answer.Read(b)
}

func TestChange_ResolvesSequenceUnderLock(t *testing.T) {
	h := newHarness(t)
	paths := h.seed(t, "0001_spotlight_A_a.jpg", "0002_spotlight_B_b.jpg", "0003_spotlight_C_c.jpg")

	h.executor.EXPECT().SetWallpaper(gomock.Any(), paths[2]).Return(nil)

	var out bytes.Buffer
	cmd := NewRootCommand(h.params)
	cmd.SetArgs([]string{"change"})
	cmd.SetIn(&racingInput{remove: paths[0], answer: strings.NewReader("3\n")})
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	require.Equal(t, 2, h.config(t).AutoChange.Index, "cursor follows the library as it is when applied")
}

func TestChange_EmptyLibrary(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "change", "1")
	require.ErrorContains(t, err, "empty")
}

func TestList_MarksCurrent(t *testing.T) {
	h := newHarness(t)
	paths := h.seed(t, "0001_spotlight_LAKE_a.jpg", "0002_pexels_CITY_b.jpg")

	h.executor.EXPECT().GetCurrentWallpaper(gomock.Any()).Return(paths[1], nil)

	out, err := h.run(t, "", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "(2 images)")
	require.Contains(t, out, ">     1  spotlight")
	require.Contains(t, out, "*     2  pexels")
}

func TestFetch_AppliesNewestImage(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "0001_spotlight_A_a.jpg")
	h.acquirer.result = acquire.Result{Source: domain.SourceWallhaven, Query: "forest"}
	h.acquirer.write = func(cfg *config.Config) []library.Image {
		existing, err := h.lib.List()
		require.NoError(t, err)
		seq := library.NextSequence(cfg.NextSequence, existing)

		var images []library.Image
		for _, id := range []string{"x", "y"} {
			img, err := h.lib.Write(library.NewName(seq, "wallhaven", "forest", id, "jpg"), []byte(id))
			require.NoError(t, err)
			seq++
			images = append(images, img)
		}
		cfg.NextSequence = seq
		return images
	}

	h.executor.EXPECT().SetWallpaper(gomock.Any(), filepath.Join(h.lib.Dir(), "0003_wallhaven_FOREST_y.jpg")).Return(nil)

	out, err := h.run(t, "", "fetch", "-n", "2", "-s", "wallhaven", "deep", "forest")
	require.NoError(t, err)
	require.Contains(t, out, "2 new image(s) from wallhaven")

	require.Len(t, h.acquirer.requests, 1)
	require.Equal(t, acquire.Request{Source: domain.SourceWallhaven, Query: "deep forest", Count: 2}, h.acquirer.requests[0])
	require.Equal(t, 3, h.config(t).AutoChange.Index)
}

func TestFetch_ReportsRateLimit(t *testing.T) {
	h := newHarness(t)
	h.acquirer.err = &domain.RateLimitError{Source: domain.SourceUnsplash, ResetIn: 12 * time.Minute}

	_, err := h.run(t, "", "f")
	require.ErrorContains(t, err, "try again in 12m0s")
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestFetch_PromptsForCredentialOnce(t *testing.T) {
	h := newHarness(t)
	h.acquirer.err = domain.ErrCredentialMissing

	_, err := h.run(t, "k1\n", "fetch", "-s", "unsplash")
	require.ErrorIs(t, err, domain.ErrCredentialMissing)
	require.Len(t, h.acquirer.requests, 2, "retried once after the key was entered")
	require.Equal(t, "k1", h.config(t).Credential(domain.SourceUnsplash))
}

func TestFetch_RejectsCount(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "fetch", "-n", "0")
	require.Error(t, err)
	require.Empty(t, h.acquirer.requests)
}
