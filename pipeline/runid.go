package pipeline

import (
	"math/rand"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// runIDGenerator hands out lexicographically sortable run ids. Ids created
// within the same millisecond still increase.
type runIDGenerator struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var (
	runIDsOnce sync.Once
	runIDs     *runIDGenerator
)

func defaultRunIDGenerator() *runIDGenerator {
	runIDsOnce.Do(func() {
		runIDs = &runIDGenerator{
			entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		}
	})
	return runIDs
}

func (g *runIDGenerator) New(t time.Time) (ulid.ULID, error) {
	g.Lock()
	defer g.Unlock()
	return ulid.New(ulid.Timestamp(t), g.entropy)
}
