package shape

import "github.com/go-gl/mathgl/mgl64"

// HitResult describes the outcome of a single raycast.
type HitResult struct {
	BlockingHit      bool
	StartPenetrating bool
	// Time is the normalized time of impact along the trace, 1 when nothing was hit.
	Time     float64
	Distance float64
	Location mgl64.Vec3
	Normal   mgl64.Vec3

	TraceStart mgl64.Vec3
	TraceEnd   mgl64.Vec3
}

// NewHitResult returns a non-blocking result for the trace start..end.
func NewHitResult(start, end mgl64.Vec3) HitResult {
	return HitResult{
		Time:       1.0,
		Distance:   end.Sub(start).Len(),
		Location:   end,
		TraceStart: start,
		TraceEnd:   end,
	}
}

// BlockAt marks the result as a blocking hit at distance along the trace.
func (h *HitResult) BlockAt(distance, maxDistance float64, location, normal mgl64.Vec3) {
	h.BlockingHit = true
	h.StartPenetrating = false
	h.Distance = distance
	h.Time = 0
	if maxDistance > 0 {
		h.Time = distance / maxDistance
	}
	h.Location = location
	h.Normal = normal
}

// StartInside marks the result as a hit that started inside the shape.
func (h *HitResult) StartInside(origin, dir mgl64.Vec3) {
	h.BlockingHit = true
	h.StartPenetrating = true
	h.Time = 0
	h.Distance = 0
	h.Location = origin
	h.Normal = dir.Mul(-1)
}
