package session

import (
	"errors"
	"fmt"
	"math"

	"pooledlist/internal/listview"
	"pooledlist/internal/scene"
	"pooledlist/internal/shared/pool"
	"pooledlist/internal/shared/protocol"

	"go.uber.org/zap"
)

// View is a session's list view. Every method must run on the host
// scheduler goroutine.
type View struct {
	host    *Host
	root    *scene.Node
	content *scene.Content
	bar     *listview.ScrollBar
	rec     *listview.Recycler[*scene.Node]
	count   listview.Count
	logger  *zap.Logger
}

// NewView creates an unbound view whose rows are parented under a node named after the session
func NewView(host *Host, name string, logger *zap.Logger) (*View, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &View{
		host:   host,
		root:   scene.NewNode("Session " + name),
		bar:    listview.NewScrollBar(1),
		logger: logger,
	}
	v.content = scene.NewContent(v.root, host.Defaults.ViewportExtent)

	rec, err := listview.New(host.Pool, host.Prototype, listview.Options[*scene.Node]{
		ElementExtent: host.Defaults.ElementExtent,
		Snapping:      host.Defaults.Snap,
		Layout:        v.content,
		Scroll:        v.bar,
		Bind:          v.bind,
		Navigate: func(n, prev, next *scene.Node) {
			scene.Link(n, prev, next)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	v.rec = rec
	return v, nil
}

func (v *View) bind(index int, n *scene.Node) {
	n.Name = fmt.Sprintf("%s %d", v.host.Prototype.Name, index)
	n.Data = fmt.Sprintf("item %d", index)
}

// Recycler exposes the underlying recycler
func (v *View) Recycler() *listview.Recycler[*scene.Node] {
	return v.rec
}

// Handle runs one request and returns the encoded reply
func (v *View) Handle(frame *protocol.Frame) []byte {
	var err error
	switch frame.Type {
	case protocol.FrameTypeBind:
		var req protocol.BindRequest
		if err = frame.Decode(&req); err == nil {
			err = v.Bind(req)
		}
	case protocol.FrameTypeScroll:
		var req protocol.ScrollRequest
		if err = frame.Decode(&req); err == nil {
			err = v.Scroll(req.Value)
		}
	case protocol.FrameTypeResize:
		var req protocol.ResizeRequest
		if err = frame.Decode(&req); err == nil {
			err = v.Resize(req)
		}
	case protocol.FrameTypeRefresh:
		err = v.Refresh()
	case protocol.FrameTypeStats:
		return encode(v.logger, protocol.FrameTypeStatsReply, &protocol.StatsMessage{Types: v.host.Registry.Snapshot()})
	default:
		return errorFrame(v.logger, protocol.CodeBadFrame, fmt.Sprintf("unexpected frame %s", frame.Type))
	}

	if err != nil {
		return errorFrame(v.logger, codeFor(err), err.Error())
	}
	return encode(v.logger, protocol.FrameTypeWindow, v.WindowMessage())
}

// Bind attaches a list of req.Count items, replacing whatever was bound
func (v *View) Bind(req protocol.BindRequest) error {
	if req.Count < 0 {
		return fmt.Errorf("%w: count %d", ErrBadRequest, req.Count)
	}
	snap := v.host.Defaults.Snap
	if req.Snap != "" {
		mode, err := listview.ParseSnapMode(req.Snap)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		snap = mode
	}
	extent := req.ElementExtent
	if extent == 0 {
		extent = v.host.Defaults.ElementExtent
	}
	viewport := req.ViewportExtent
	if viewport == 0 {
		viewport = v.host.Defaults.ViewportExtent
	}
	if !validViewport(viewport) {
		return fmt.Errorf("%w: viewport %v", ErrBadRequest, viewport)
	}

	v.rec.Clear()
	if err := v.rec.SetElementExtent(extent); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	_ = v.rec.SetSnapping(snap)
	v.content.SetViewportExtent(viewport)
	if req.Scroll != nil {
		v.bar.SetValueWithoutNotify(*req.Scroll)
	}

	v.count = listview.Count(req.Count)
	return v.rec.Bind(&v.count)
}

func validViewport(viewport float64) bool {
	return viewport >= 0 && !math.IsInf(viewport, 0)
}

// Scroll moves the window to a normalized position
func (v *View) Scroll(value float64) error {
	if v.rec.State() != listview.StateBound {
		return ErrNotBound
	}
	return v.rec.SetScrollPosition(value)
}

// Resize changes the list length in place. Indices that survive keep their instances.
func (v *View) Resize(req protocol.ResizeRequest) error {
	if v.rec.State() != listview.StateBound {
		return ErrNotBound
	}
	if req.Count < 0 {
		return fmt.Errorf("%w: count %d", ErrBadRequest, req.Count)
	}
	if !validViewport(req.ViewportExtent) {
		return fmt.Errorf("%w: viewport %v", ErrBadRequest, req.ViewportExtent)
	}
	if req.ViewportExtent > 0 {
		v.content.SetViewportExtent(req.ViewportExtent)
	}
	v.count = listview.Count(req.Count)
	return v.rec.SetScrollPosition(v.bar.Value())
}

// Refresh rebinds every visible row
func (v *View) Refresh() error {
	if v.rec.State() != listview.StateBound {
		return ErrNotBound
	}
	return v.rec.Refresh()
}

// WindowMessage describes the current window and its rows
func (v *View) WindowMessage() *protocol.WindowMessage {
	w := v.rec.Window()
	msg := &protocol.WindowMessage{
		Start:    w.Start,
		End:      w.End,
		Count:    w.Count,
		Leading:  w.Leading,
		Trailing: w.Trailing,
		Scroll:   w.Scroll,
	}
	for _, index := range v.rec.BoundIndices() {
		n, _ := v.rec.Instance(index)
		label, _ := n.Data.(string)
		msg.Rows = append(msg.Rows, protocol.Row{Index: index, Name: n.Name, Label: label})
	}
	return msg
}

// Release returns every instance to the shared pool and detaches the view's root
func (v *View) Release() {
	v.rec.Clear()
	v.root.SetParent(nil)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrNotBound):
		return protocol.CodeNotBound
	case errors.Is(err, ErrBadRequest), errors.Is(err, listview.ErrInvalidExtent):
		return protocol.CodeBadRequest
	case errors.Is(err, pool.ErrConstruction):
		return protocol.CodeInternal
	default:
		return protocol.CodeBadFrame
	}
}

func encode(logger *zap.Logger, t protocol.FrameType, v any) []byte {
	data, err := protocol.Encode(t, v)
	if err != nil {
		logger.Error("Failed to encode reply", zap.Stringer("frame", t), zap.Error(err))
		return nil
	}
	return data
}

func errorFrame(logger *zap.Logger, code, message string) []byte {
	return encode(logger, protocol.FrameTypeError, &protocol.ErrorMessage{Code: code, Message: message})
}
