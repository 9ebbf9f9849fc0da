package mission

// Plan is an ordered, validated sequence of mission points plus the
// mission-level return-to-launch setting. Immutable once built.
type Plan struct {
	points         []Point
	returnToLaunch bool
}

func NewPlan(points []Point, returnToLaunch bool) *Plan {
	copied := make([]Point, len(points))
	copy(copied, points)
	return &Plan{points: copied, returnToLaunch: returnToLaunch}
}

func (p *Plan) Points() []Point {
	copied := make([]Point, len(p.points))
	copy(copied, p.points)
	return copied
}

func (p *Plan) Len() int {
	return len(p.points)
}

func (p *Plan) ReturnToLaunch() bool {
	return p.returnToLaunch
}
