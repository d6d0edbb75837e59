package core

// Pose is a full transform: where the aircraft is, how it is oriented and
// how it is scaled.
type Pose struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// NewPose returns a unit-scale pose.
func NewPose(position Vec3, rotation Quat) Pose {
	return Pose{Position: position, Rotation: rotation, Scale: One}
}

// Equal reports exact equality of all components.
func (p Pose) Equal(o Pose) bool {
	return p.Position.Equal(o.Position) && p.Rotation == o.Rotation && p.Scale.Equal(o.Scale)
}
