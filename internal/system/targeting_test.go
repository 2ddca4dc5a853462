package system

import (
	"net"
	"testing"
	"time"

	"github.com/propcraft/server/internal/action"
	coreevent "github.com/propcraft/server/internal/core/event"
	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/geo"
	gonet "github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/pricing"
	"github.com/propcraft/server/internal/target"
	"github.com/propcraft/server/internal/vis"
	"github.com/propcraft/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type targetingFixture struct {
	state     *world.State
	sessions  *gonet.SessionStore
	bus       *coreevent.Bus
	targeting *TargetingSystem
	sess      *gonet.Session
}

// pipeSession builds a session whose writer goroutine is never started, so
// flushed packets stay readable on OutQueue.
func pipeSession(t *testing.T, id uint64) *gonet.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return gonet.NewSession(server, id, 16, 64, 0, zap.NewNop())
}

func newTargetingFixture(t *testing.T) *targetingFixture {
	t.Helper()
	catalog := data.NewCatalogTable(
		&data.Template{ID: "crate", Name: "Crate", BaseValue: 100,
			HalfExtents: data.Vec{X: 0.5, Y: 0.5, Z: 0.5}, Solid: true},
	)
	state := world.NewState(catalog)

	checker := vis.NewChecker(vis.Config{
		RaysPerObject:    8,
		MinClearFraction: 0.3,
		MaxDistance:      12, // retention radius
		CacheTTL:         time.Millisecond,
	}, state, zap.NewNop())

	bus := coreevent.NewBus()
	sessions := gonet.NewSessionStore()
	engine := pricing.NewEngine(map[string]float64{
		action.Examine: 0, action.Clone: 1.0, action.Move: 0.6,
		action.Rotate: 0.1, action.Recall: 0.2, action.Destroy: 0.8,
	})

	targeting := NewTargetingSystem(target.Config{
		MaxDistance:  10,
		RetainFactor: 1.2,
		SwitchMargin: 0.1,
	}, state, checker, engine, sessions, bus, zap.NewNop())

	sess := pipeSession(t, 1)
	sess.ParticipantID = "alice"
	sess.SetState(packet.StateInWorld)
	sessions.Add(sess)
	state.AddObserver(&world.Observer{
		SessionID:     1,
		ParticipantID: "alice",
		Pos:           geo.Vec3{},
	})

	return &targetingFixture{
		state:     state,
		sessions:  sessions,
		bus:       bus,
		targeting: targeting,
		sess:      sess,
	}
}

// drainPacket flushes the session buffer and returns the next queued packet.
func drainPacket(t *testing.T, sess *gonet.Session) *packet.Reader {
	t.Helper()
	sess.FlushOutput()
	select {
	case data := <-sess.OutQueue:
		return packet.NewReader(data)
	default:
		t.Fatal("no packet queued")
		return nil
	}
}

func noPacket(t *testing.T, sess *gonet.Session) {
	t.Helper()
	sess.FlushOutput()
	select {
	case data := <-sess.OutQueue:
		t.Fatalf("unexpected packet 0x%02x", data[0])
	default:
	}
}

func TestTargetingPromptRoundTrip(t *testing.T) {
	f := newTargetingFixture(t)
	placed, err := f.state.PlaceClone("crate", "bob", geo.Vec3{X: 5, Y: 0.5}, 0)
	require.NoError(t, err)

	f.targeting.Update(0)
	assert.Equal(t, placed.Key(), f.targeting.Current(1))

	r := drainPacket(t, f.sess)
	require.Equal(t, packet.S_OPCODE_PROMPT, r.Opcode())
	assert.Equal(t, placed.Key(), r.ReadS())
	assert.Equal(t, "crate", r.ReadS())
	assert.Equal(t, "Crate", r.ReadS())
	assert.Equal(t, byte(world.KindPlaced), r.ReadC())
	count := int(r.ReadC())
	require.Equal(t, 5, count)
	costs := make(map[string]int64, count)
	for i := 0; i < count; i++ {
		costs[r.ReadS()] = r.ReadQ()
	}
	assert.Equal(t, int64(0), costs[action.Examine])
	assert.Equal(t, int64(80), costs[action.Destroy])
	assert.Equal(t, int64(20), costs[action.Recall])

	// The prompt fires once; holding the target stays silent.
	f.targeting.Update(0)
	noPacket(t, f.sess)
}

func TestTargetingWallOcclusionBlocksAcquisition(t *testing.T) {
	f := newTargetingFixture(t)
	_, err := f.state.PlaceClone("crate", "bob", geo.Vec3{X: 5, Y: 0.5}, 0)
	require.NoError(t, err)

	// A floor-to-ceiling slab between observer and crate. Every sample ray
	// crosses it, so the clear fraction is zero and no prompt ever fires.
	require.NoError(t, f.state.LoadStructures(&data.StructureTable{
		Walls: []data.Wall{{
			Min: data.Vec{X: 2.5, Y: -1, Z: -4},
			Max: data.Vec{X: 3.0, Y: 4, Z: 4},
		}},
	}))

	for i := 0; i < 3; i++ {
		f.targeting.Update(0)
	}
	assert.Empty(t, f.targeting.Current(1))
	noPacket(t, f.sess)
}

func TestTargetingLossOnDestroy(t *testing.T) {
	f := newTargetingFixture(t)
	placed, err := f.state.PlaceClone("crate", "bob", geo.Vec3{X: 5, Y: 0.5}, 0)
	require.NoError(t, err)

	f.targeting.Update(0)
	require.Equal(t, placed.Key(), f.targeting.Current(1))
	drainPacket(t, f.sess) // prompt

	require.NoError(t, f.state.RemovePlaced(placed.Instance))
	f.targeting.Update(0)
	assert.Empty(t, f.targeting.Current(1))

	r := drainPacket(t, f.sess)
	require.Equal(t, packet.S_OPCODE_PROMPTCLEAR, r.Opcode())
	assert.Equal(t, placed.Key(), r.ReadS())
	assert.Equal(t, string(target.LossDestroyed), r.ReadS())
}

func TestTargetingPromptAdvancesOnResult(t *testing.T) {
	f := newTargetingFixture(t)
	placed, err := f.state.PlaceClone("crate", "alice", geo.Vec3{X: 5, Y: 0.5}, 0)
	require.NoError(t, err)

	f.targeting.Update(0)
	require.Equal(t, placed.Key(), f.targeting.Current(1))
	drainPacket(t, f.sess)

	f.targeting.OnActionDispatched(1, placed.Key())

	// The verdict travels through the bus, one dispatch later.
	coreevent.Emit(f.bus, ActionResolved{Result: action.Result{
		SessionID: 1, Applied: true,
	}})
	f.bus.Dispatch()
	assert.Equal(t, target.StateApplied, f.targeting.entries[1].prompt.State())
}

func TestTargetingObserverLeftDropsEntry(t *testing.T) {
	f := newTargetingFixture(t)
	_, err := f.state.PlaceClone("crate", "bob", geo.Vec3{X: 5, Y: 0.5}, 0)
	require.NoError(t, err)

	f.targeting.Update(0)
	require.NotEmpty(t, f.targeting.Current(1))

	f.state.RemoveObserver(1)
	coreevent.Emit(f.bus, ObserverLeft{SessionID: 1})
	f.bus.Dispatch()
	assert.Empty(t, f.targeting.Current(1))
}
