package pool

// Vec3 is a position or scale in host space
type Vec3 [3]float64

// Quat is a rotation quaternion stored as x, y, z, w
type Quat [4]float64

// IdentityRotation is the no-op rotation
var IdentityRotation = Quat{0, 0, 0, 1}

// Space selects which frame a placement is applied in
type Space uint8

const (
	// SpaceWorld applies position and rotation in world space
	SpaceWorld Space = iota
	// SpaceSelf applies position and rotation relative to the parent
	SpaceSelf
)

// String returns the string representation of the space
func (s Space) String() string {
	switch s {
	case SpaceWorld:
		return "world"
	case SpaceSelf:
		return "self"
	default:
		return "unknown"
	}
}

// Placement carries the optional spatial parameters of a Get.
// A nil *Placement means "leave the transform alone".
type Placement struct {
	Position Vec3
	Rotation Quat
	// Scale is left untouched when nil
	Scale    *Vec3
	Space    Space
}

// At returns a placement at position with identity rotation
func At(position Vec3, space Space) *Placement {
	return &Placement{
		Position: position,
		Rotation: IdentityRotation,
		Space:    space,
	}
}

// Lifecycle is the host side of a pool: the construction source, the
// destruction sink and the activation hooks. Pools call it from the single
// owner goroutine only.
type Lifecycle[T comparable] interface {
	// Instantiate builds a new instance from prototype
	Instantiate(prototype T) (T, error)
	// Destroy releases an instance permanently
	Destroy(instance T)
	// Activate parents an instance under parent, applies placement when
	// non-nil and marks it active
	Activate(instance T, parent any, placement *Placement)
	// Deactivate marks an instance idle and moves it under holding
	Deactivate(instance T, holding any)
}

// Observer receives pool events. Implementations must be cheap; they run
// inline with pool operations.
type Observer interface {
	Constructed(typeName, key string)
	Reused(typeName, key string)
	Returned(typeName, key string)
	Destroyed(typeName, key string, count int)
	Misuse(typeName, key string, err error)
}

type nopObserver struct{}

func (nopObserver) Constructed(string, string) {}
func (nopObserver) Reused(string, string) {}
func (nopObserver) Returned(string, string) {}
func (nopObserver) Destroyed(string, string, int) {}
func (nopObserver) Misuse(string, string, error) {}
