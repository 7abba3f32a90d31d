package model

// Interpolation is the keyframe interpolation mode of a track.
type Interpolation string

const (
	InterpolationLinear      Interpolation = "LINEAR"
	InterpolationStep        Interpolation = "STEP"
	InterpolationCubicSpline Interpolation = "CUBICSPLINE"
)

// Keyframe is one sampled value at a point in time.
type Keyframe[V any] struct {
	// Time is the sample time in seconds.
	Time float32

	// Value is the sampled value.
	Value V
}

// Track is a time-ordered keyframe sequence for one animated property.
// Keys keep the order of the source time accessor.
type Track[V any] struct {
	Interpolation Interpolation
	Keys          []Keyframe[V]
}

// Append adds a keyframe to the end of the track.
//
// Parameters:
//   - time: the sample time
//   - v: the sampled value
func (t *Track[V]) Append(time float32, v V) {
	t.Keys = append(t.Keys, Keyframe[V]{Time: time, Value: v})
}

// Len returns the number of keyframes.
func (t *Track[V]) Len() int {
	return len(t.Keys)
}

// Channel holds the translation, rotation and scale tracks of one node.
type Channel struct {
	// NodeID is the animated node.
	NodeID int

	Translation Track[[3]float32]

	// Rotation values are quaternions in (x, y, z, w) order.
	Rotation Track[[4]float32]

	Scale Track[[3]float32]
}

// Animation is a named clip: an ordered mapping from node id to that node's Channel.
// Iteration order is the order in which nodes were first inserted.
type Animation struct {
	// Name is the clip name.
	Name string

	// Duration is the largest keyframe time across all tracks.
	Duration float32

	channels map[int]*Channel
	order    []int
}

// NewAnimation creates an empty animation clip.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *Animation: the empty clip
func NewAnimation(name string) *Animation {
	return &Animation{
		Name:     name,
		channels: make(map[int]*Channel),
	}
}

// Upsert returns the channel for nodeID, creating it with empty tracks on first reference.
//
// Parameters:
//   - nodeID: the animated node id
//
// Returns:
//   - *Channel: the existing or newly created channel
func (a *Animation) Upsert(nodeID int) *Channel {
	if ch, ok := a.channels[nodeID]; ok {
		return ch
	}
	ch := &Channel{NodeID: nodeID}
	a.channels[nodeID] = ch
	a.order = append(a.order, nodeID)
	return ch
}

// Channel looks up the channel for nodeID.
//
// Parameters:
//   - nodeID: the animated node id
//
// Returns:
//   - *Channel: the channel, or nil
//   - bool: whether the node is animated by this clip
func (a *Animation) Channel(nodeID int) (*Channel, bool) {
	ch, ok := a.channels[nodeID]
	return ch, ok
}

// NodeIDs returns the animated node ids in first-insertion order.
func (a *Animation) NodeIDs() []int {
	ids := make([]int, len(a.order))
	copy(ids, a.order)
	return ids
}

// Channels returns the channels in first-insertion order.
func (a *Animation) Channels() []*Channel {
	out := make([]*Channel, len(a.order))
	for i, id := range a.order {
		out[i] = a.channels[id]
	}
	return out
}

// Len returns the number of animated nodes.
func (a *Animation) Len() int {
	return len(a.order)
}
