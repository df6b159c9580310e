package session

import (
	"math"
	"testing"

	"pooledlist/internal/listview"
	"pooledlist/internal/scene"
	"pooledlist/internal/shared/pool"
	"pooledlist/internal/shared/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHost(t *testing.T) *Host {
	t.Helper()

	registry := pool.NewRegistry(pool.WithLogger(zap.NewNop()))
	proto := scene.NewNode("row")
	proto.Height = 20
	proto.Selectable = true

	host, err := NewHost(
		pool.NewScheduler(0, 0, zap.NewNop()),
		registry,
		scene.NewLifecycle(nil),
		proto,
		Defaults{ElementExtent: 20, ViewportExtent: 200},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return host
}

func newView(t *testing.T, host *Host, name string) *View {
	t.Helper()
	v, err := NewView(host, name, zap.NewNop())
	require.NoError(t, err)
	return v
}

func decodeReply(t *testing.T, data []byte) (*protocol.Frame, any) {
	t.Helper()
	require.NotNil(t, data)

	frame, err := protocol.ReadFrame(data)
	require.NoError(t, err)

	switch frame.Type {
	case protocol.FrameTypeWindow:
		var msg protocol.WindowMessage
		require.NoError(t, frame.Decode(&msg))
		return frame, &msg
	case protocol.FrameTypeStatsReply:
		var msg protocol.StatsMessage
		require.NoError(t, frame.Decode(&msg))
		return frame, &msg
	case protocol.FrameTypeError:
		var msg protocol.ErrorMessage
		require.NoError(t, frame.Decode(&msg))
		return frame, &msg
	}
	t.Fatalf("unexpected reply %s", frame.Type)
	return nil, nil
}

func request(t *testing.T, v *View, ft protocol.FrameType, body any) any {
	t.Helper()
	data, err := protocol.Encode(ft, body)
	require.NoError(t, err)
	frame, err := protocol.ReadFrame(data)
	require.NoError(t, err)
	_, reply := decodeReply(t, v.Handle(frame))
	return reply
}

func TestNewHostValidation(t *testing.T) {
	registry := pool.NewRegistry()
	sched := pool.NewScheduler(0, 0, nil)

	_, err := NewHost(nil, registry, scene.NewLifecycle(nil), scene.NewNode("row"), Defaults{}, nil)
	assert.Error(t, err)

	_, err = NewHost(sched, registry, scene.NewLifecycle(nil), nil, Defaults{}, nil)
	assert.ErrorIs(t, err, pool.ErrNilPrototype)
}

func TestViewBindUsesDefaults(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")

	reply := request(t, v, protocol.FrameTypeBind, &protocol.BindRequest{Count: 1000})
	msg, ok := reply.(*protocol.WindowMessage)
	require.True(t, ok, "reply = %+v", reply)

	assert.Equal(t, 0, msg.Start)
	assert.Equal(t, 11, msg.End)
	assert.Equal(t, 1000, msg.Count)
	assert.Equal(t, 0.0, msg.Leading)
	assert.Equal(t, 20.0*1000-20*11, msg.Trailing)
	require.Len(t, msg.Rows, 11)
	assert.Equal(t, protocol.Row{Index: 0, Name: "row 0", Label: "item 0"}, msg.Rows[0])
	assert.Equal(t, 11, host.Pool.CheckedOutCount(host.Prototype))
}

func TestViewScrollAndResize(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")

	bottom := 0.0
	require.NoError(t, v.Bind(protocol.BindRequest{Count: 1000, Scroll: &bottom}))
	w := v.Recycler().Window()
	assert.Equal(t, 989, w.Start)
	assert.Equal(t, 1000, w.End)

	require.NoError(t, v.Scroll(1))
	assert.Equal(t, 0, v.Recycler().Window().Start)

	// Shrinking below the window keeps surviving rows and returns the rest
	require.NoError(t, v.Resize(protocol.ResizeRequest{Count: 5}))
	w = v.Recycler().Window()
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 5, w.End)
	assert.Equal(t, 5, host.Pool.CheckedOutCount(host.Prototype))
	assert.Equal(t, 6, host.Pool.FreeCount(host.Prototype))

	require.NoError(t, v.Resize(protocol.ResizeRequest{Count: 5, ViewportExtent: 40}))
	assert.Equal(t, 3, v.Recycler().Window().End)
}

func TestViewSnapAndExtent(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")

	require.NoError(t, v.Bind(protocol.BindRequest{Count: 100, ElementExtent: 10, ViewportExtent: 50, Snap: "items"}))
	require.NoError(t, v.Scroll(0.503))

	w := v.Recycler().Window()
	assert.Equal(t, 47.0, w.RawIndex)
	assert.Equal(t, 10.0, w.ElementExtent)
}

func TestViewErrors(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")

	tests := []struct {
		name string
		ft   protocol.FrameType
		body any
		code string
	}{
		{"scroll before bind", protocol.FrameTypeScroll, &protocol.ScrollRequest{Value: 0.5}, protocol.CodeNotBound},
		{"refresh before bind", protocol.FrameTypeRefresh, nil, protocol.CodeNotBound},
		{"resize before bind", protocol.FrameTypeResize, &protocol.ResizeRequest{Count: 3}, protocol.CodeNotBound},
		{"negative count", protocol.FrameTypeBind, &protocol.BindRequest{Count: -1}, protocol.CodeBadRequest},
		{"bad snap", protocol.FrameTypeBind, &protocol.BindRequest{Count: 1, Snap: "pixels"}, protocol.CodeBadRequest},
		{"bad extent", protocol.FrameTypeBind, &protocol.BindRequest{Count: 1, ElementExtent: -4}, protocol.CodeBadRequest},
		{"negative viewport", protocol.FrameTypeBind, &protocol.BindRequest{Count: 1, ViewportExtent: -1}, protocol.CodeBadRequest},
		{"infinite viewport", protocol.FrameTypeBind, &protocol.BindRequest{Count: 1, ViewportExtent: math.Inf(1)}, protocol.CodeBadRequest},
		{"nan viewport", protocol.FrameTypeBind, &protocol.BindRequest{Count: 1, ViewportExtent: math.NaN()}, protocol.CodeBadRequest},
		{"server frame", protocol.FrameTypeWindow, &protocol.WindowMessage{}, protocol.CodeBadFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := request(t, v, tt.ft, tt.body)
			msg, ok := reply.(*protocol.ErrorMessage)
			require.True(t, ok, "reply = %+v", reply)
			assert.Equal(t, tt.code, msg.Code, msg.Message)
		})
	}

	bad := &protocol.Frame{Type: protocol.FrameTypeScroll, Payload: []byte{0xc1}}
	_, reply := decodeReply(t, v.Handle(bad))
	assert.Equal(t, protocol.CodeBadFrame, reply.(*protocol.ErrorMessage).Code)
}

func TestViewResizeRejectsNonFiniteViewport(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")
	require.NoError(t, v.Bind(protocol.BindRequest{Count: 100}))
	before := v.WindowMessage()

	for _, viewport := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		err := v.Resize(protocol.ResizeRequest{Count: 100, ViewportExtent: viewport})
		assert.ErrorIs(t, err, ErrBadRequest, "viewport %v", viewport)
	}
	assert.Equal(t, before.Start, v.WindowMessage().Start)
	assert.Equal(t, before.End, v.WindowMessage().End)
}

func TestViewConstructionFailure(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")
	host.Lifecycle.Destroy(host.Prototype)

	reply := request(t, v, protocol.FrameTypeBind, &protocol.BindRequest{Count: 10})
	msg, ok := reply.(*protocol.ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeInternal, msg.Code)
}

func TestViewsSharePool(t *testing.T) {
	host := newHost(t)
	a := newView(t, host, "a")
	b := newView(t, host, "b")

	require.NoError(t, a.Bind(protocol.BindRequest{Count: 100}))
	built := host.Lifecycle.Built()
	a.Release()
	assert.Equal(t, built, host.Pool.FreeCount(host.Prototype))

	// The second view is served entirely from instances the first returned
	require.NoError(t, b.Bind(protocol.BindRequest{Count: 100}))
	assert.Equal(t, built, host.Lifecycle.Built())
	assert.Equal(t, listview.StateBound, b.Recycler().State())
	assert.Equal(t, listview.StateUnbound, a.Recycler().State())

	reply := request(t, b, protocol.FrameTypeStats, nil)
	stats, ok := reply.(*protocol.StatsMessage)
	require.True(t, ok)
	require.Len(t, stats.Types, 1)
	require.Len(t, stats.Types[0].Entries, 1)
	assert.Equal(t, "row", stats.Types[0].Entries[0].Key)
	assert.Equal(t, 11, stats.Types[0].Entries[0].CheckedOut)
}

func TestHostTrim(t *testing.T) {
	host := newHost(t)
	v := newView(t, host, "a")
	require.NoError(t, v.Bind(protocol.BindRequest{Count: 100}))
	v.Release()
	require.Equal(t, 11, host.Pool.FreeCount(host.Prototype))

	var destroyed int
	var snapshot []pool.TypeStats
	require.True(t, host.Trim(4, func(n int, stats []pool.TypeStats) {
		destroyed, snapshot = n, stats
	}))
	host.Scheduler.Tick()

	assert.Equal(t, 7, destroyed)
	assert.Equal(t, 4, host.Pool.FreeCount(host.Prototype))
	require.Len(t, snapshot, 1)
	assert.Equal(t, 4, snapshot[0].Free())
}
