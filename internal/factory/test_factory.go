package factory

import (
	"context"
	"strings"
	"time"

	"github.com/mcoot/gridrace/internal/dependencies/mocks"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage/memory"
	"github.com/mcoot/gridrace/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Games idle out after gameDuration; zero uses a minute.
func NewTestApp(gameDuration time.Duration) *TestApp {
	if gameDuration <= 0 {
		gameDuration = time.Minute
	}
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, Config{
		GameDuration:       gameDuration,
		BackInHistoryDelay: time.Millisecond,
	}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestMap uploads a small map. "ring" is a 4x4 track around a 2x2 block of walls.
func (t *TestApp) LoadTestMap(ctx context.Context, name string) (*model.GameMap, error) {
	csv := strings.Join([]string{
		"1,1,1,1",
		"1,0,0,1",
		"1,0,0,1",
		"1,1,1,1",
	}, "\n")
	return t.MapService.Upload(ctx, name, strings.NewReader(csv))
}
