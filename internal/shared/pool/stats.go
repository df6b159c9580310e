package pool

// EntryStats describes one prototype key of a pool
type EntryStats struct {
	Key         string `msgpack:"key" yaml:"key"`
	Free        int    `msgpack:"free" yaml:"free"`
	CheckedOut  int    `msgpack:"checked_out" yaml:"checked_out"`
	Capacity    int    `msgpack:"capacity" yaml:"capacity"`
	CapacitySet bool   `msgpack:"capacity_set" yaml:"capacity_set"`
}

// TypeStats describes every entry of the pool for one instance type
type TypeStats struct {
	Type            string       `msgpack:"type" yaml:"type"`
	DefaultCapacity int          `msgpack:"default_capacity" yaml:"default_capacity"`
	Entries         []EntryStats `msgpack:"entries" yaml:"entries"`
}

// Free returns the idle instance total across entries
func (s TypeStats) Free() int {
	total := 0
	for _, e := range s.Entries {
		total += e.Free
	}
	return total
}

// CheckedOut returns the handed-out instance total across entries
func (s TypeStats) CheckedOut() int {
	total := 0
	for _, e := range s.Entries {
		total += e.CheckedOut
	}
	return total
}
