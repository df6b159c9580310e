package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"pooledlist/internal/shared/pool"
)

func TestFrameType_String(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameTypeBind, "Bind"},
		{FrameTypeScroll, "Scroll"},
		{FrameTypeResize, "Resize"},
		{FrameTypeRefresh, "Refresh"},
		{FrameTypeStats, "Stats"},
		{FrameTypeWindow, "Window"},
		{FrameTypeStatsReply, "StatsReply"},
		{FrameTypeError, "Error"},
		{FrameType(0x7f), "Unknown(127)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ft.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameType_FromClient(t *testing.T) {
	for _, ft := range []FrameType{FrameTypeBind, FrameTypeScroll, FrameTypeResize, FrameTypeRefresh, FrameTypeStats} {
		if !ft.FromClient() {
			t.Errorf("%s should be a client frame", ft)
		}
	}
	for _, ft := range []FrameType{FrameTypeWindow, FrameTypeStatsReply, FrameTypeError, 0} {
		if ft.FromClient() {
			t.Errorf("%s should not be a client frame", ft)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	scroll := 0.25
	tests := []struct {
		name string
		ft   FrameType
		in   any
		out  any
	}{
		{
			name: "bind",
			ft:   FrameTypeBind,
			in:   &BindRequest{Count: 1000, ElementExtent: 20, ViewportExtent: 200, Snap: "items", Scroll: &scroll},
			out:  &BindRequest{},
		},
		{
			name: "window",
			ft:   FrameTypeWindow,
			in: &WindowMessage{
				Start: 3, End: 6, Count: 10, Leading: 60, Trailing: 80, Scroll: 0.5,
				Rows: []Row{{Index: 3, Name: "Row (Clone)", Label: "item 3"}},
			},
			out: &WindowMessage{},
		},
		{
			name: "stats",
			ft:   FrameTypeStatsReply,
			in: &StatsMessage{Types: []pool.TypeStats{{
				Type:            "*scene.Node",
				DefaultCapacity: 20,
				Entries:         []pool.EntryStats{{Key: "Row", Free: 4, CheckedOut: 11, Capacity: 20}},
			}}},
			out: &StatsMessage{},
		},
		{
			name: "error",
			ft:   FrameTypeError,
			in:   &ErrorMessage{Code: CodeNotBound, Message: "bind first"},
			out:  &ErrorMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.ft, tt.in)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if FrameType(data[0]) != tt.ft {
				t.Fatalf("type byte = %x, want %x", data[0], byte(tt.ft))
			}

			frame, err := ReadFrame(data)
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if err := frame.Decode(tt.out); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(tt.in, tt.out) {
				t.Errorf("decoded = %+v, want %+v", tt.out, tt.in)
			}
		})
	}
}

func TestEncodeWithoutBody(t *testing.T) {
	data, err := Encode(FrameTypeRefresh, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(data, []byte{byte(FrameTypeRefresh)}) {
		t.Errorf("Encode(nil) = %v", data)
	}

	frame, err := ReadFrame(data)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	req := ScrollRequest{Value: 0.3}
	if err := frame.Decode(&req); err != nil || req.Value != 0.3 {
		t.Errorf("Decode(empty) changed the target or failed: %+v, %v", req, err)
	}
}

func TestEncodeReturnsOwnedSlice(t *testing.T) {
	a, _ := Encode(FrameTypeScroll, &ScrollRequest{Value: 0.1})
	want := append([]byte(nil), a...)
	_, _ = Encode(FrameTypeScroll, &ScrollRequest{Value: 0.9})

	if !bytes.Equal(a, want) {
		t.Error("encoded bytes changed after the scratch buffer was reused")
	}
}

func TestReadFrameErrors(t *testing.T) {
	if _, err := ReadFrame(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("ReadFrame(nil) error = %v, want ErrEmptyFrame", err)
	}

	big := make([]byte, MaxFrameSize+FrameHeaderSize+1)
	if _, err := ReadFrame(big); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame(big) error = %v, want ErrFrameTooLarge", err)
	}

	frame := &Frame{Type: FrameTypeScroll, Payload: []byte{0xc1}}
	if err := frame.Decode(&ScrollRequest{}); err == nil {
		t.Error("Decode() should fail on a malformed payload")
	}
}

func TestErrorMessage_Error(t *testing.T) {
	var err error = &ErrorMessage{Code: CodeBadRequest, Message: "count must not be negative"}
	if err.Error() != "bad_request: count must not be negative" {
		t.Errorf("Error() = %q", err.Error())
	}
}
