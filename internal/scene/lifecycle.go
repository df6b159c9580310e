package scene

import (
	"errors"
	"fmt"

	"pooledlist/internal/shared/pool"
)

// ErrDestroyedPrototype is returned when cloning a destroyed node
var ErrDestroyedPrototype = errors.New("prototype node is destroyed")

// Lifecycle builds nodes by cloning prototypes and parks idle ones under a
// holding node. It implements pool.Lifecycle[*Node].
type Lifecycle struct {
	holding *Node
	built   int
}

// NewLifecycle creates a lifecycle parking idle nodes under holding. A nil
// holding node gets a fresh "Pool" root.
func NewLifecycle(holding *Node) *Lifecycle {
	if holding == nil {
		holding = NewNode("Pool")
		holding.Active = false
	}
	return &Lifecycle{holding: holding}
}

// Holding returns the node idle instances live under
func (l *Lifecycle) Holding() *Node {
	return l.holding
}

// Built returns how many nodes have been cloned
func (l *Lifecycle) Built() int {
	return l.built
}

func (l *Lifecycle) Instantiate(prototype *Node) (*Node, error) {
	if prototype == nil {
		return nil, errors.New("nil prototype")
	}
	if prototype.destroyed {
		return nil, fmt.Errorf("%w: %s", ErrDestroyedPrototype, prototype.Name)
	}

	l.built++
	clone := NewNode(prototype.Name + " (Clone)")
	clone.Rotation = prototype.Rotation
	clone.Scale = prototype.Scale
	clone.Height = prototype.Height
	clone.Selectable = prototype.Selectable
	return clone, nil
}

func (l *Lifecycle) Destroy(instance *Node) {
	instance.SetParent(nil)
	instance.Active = false
	instance.Up, instance.Down = nil, nil
	instance.Data = nil
	instance.destroyed = true
}

func (l *Lifecycle) Activate(instance *Node, parent any, placement *pool.Placement) {
	p, _ := parent.(*Node)
	instance.SetParent(p)

	if placement != nil {
		pos := placement.Position
		if placement.Space == pool.SpaceWorld && p != nil {
			origin := p.WorldPosition()
			for i := range pos {
				pos[i] -= origin[i]
			}
		}
		instance.Position = pos
		instance.Rotation = placement.Rotation
		if placement.Scale != nil {
			instance.Scale = *placement.Scale
		}
	}

	instance.Active = true
}

func (l *Lifecycle) Deactivate(instance *Node, holding any) {
	instance.Active = false
	if h, ok := holding.(*Node); ok && h != nil {
		instance.SetParent(h)
		return
	}
	instance.SetParent(l.holding)
}
