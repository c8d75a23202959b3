package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/akmonengine/collide"
	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// QueryDebugger prints the results of scene queries
type QueryDebugger interface {
	DebugRaycast(label string, body *collide.Body, hit shape.HitResult, ok bool)
	DebugPairs(pairs []collide.Pair)
	DebugEvent(event collide.Event)
}

type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugRaycast(label string, body *collide.Body, hit shape.HitResult, ok bool) {
	fmt.Printf("🔍 Raycast %s:\n", label)
	if !ok {
		fmt.Printf("   No hit (trace %v -> %v)\n", hit.TraceStart, hit.TraceEnd)
		return
	}
	fmt.Printf("   Body: %s\n", body.Name)
	fmt.Printf("   Distance: %.4f (time %.4f)\n", hit.Distance, hit.Time)
	fmt.Printf("   Location: %v\n", hit.Location)
	fmt.Printf("   Normal: %v\n", hit.Normal)
	if hit.StartPenetrating {
		fmt.Printf("   Started inside the body\n")
	}
}

func (d *SimpleDebugger) DebugPairs(pairs []collide.Pair) {
	fmt.Printf("🎯 Overlapping pairs: %d\n", len(pairs))
	for _, p := range pairs {
		fmt.Printf("   %s <-> %s\n", p.BodyA.Name, p.BodyB.Name)
	}
}

func (d *SimpleDebugger) DebugEvent(event collide.Event) {
	switch e := event.(type) {
	case collide.OverlapEnterEvent:
		fmt.Printf("   ➕ %s: %s, %s\n", e.Type(), e.BodyA.Name, e.BodyB.Name)
	case collide.OverlapExitEvent:
		fmt.Printf("   ➖ %s: %s, %s\n", e.Type(), e.BodyA.Name, e.BodyB.Name)
	}
}

// SetupScene creates a ground slab with a few props and a moving capsule
func SetupScene(logger *slog.Logger) (*collide.Scene, *collide.Body) {
	scene := collide.NewScene(logger)
	scene.Workers = 2

	ground := &collide.Body{
		Name:      "ground",
		Shape:     shape.NewBox(mgl64.Vec3{20, 20, 0.5}),
		Transform: shape.At(mgl64.Vec3{0, 0, -0.5}, mgl64.QuatIdent()),
	}
	crate := &collide.Body{
		Name:      "crate",
		Shape:     shape.NewBox(mgl64.Vec3{1, 1, 1}),
		Transform: shape.At(mgl64.Vec3{4, 0, 1}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})),
	}
	pillar := &collide.Body{
		Name:      "pillar",
		Shape:     shape.NewCylinder(0.75, 3),
		Transform: shape.At(mgl64.Vec3{8, 0, 3}, mgl64.QuatIdent()),
	}
	ball := &collide.Body{
		Name:      "ball",
		Shape:     shape.NewSphere(0.5),
		Transform: shape.At(mgl64.Vec3{-4, 3, 0.5}, mgl64.QuatIdent()),
	}
	// The capsule walks along +X through the props
	walker := &collide.Body{
		Name:      "walker",
		Shape:     shape.NewCapsule(0.4, 1),
		Transform: shape.At(mgl64.Vec3{0, 0, 1.05}, mgl64.QuatIdent()),
	}

	for _, body := range []*collide.Body{ground, crate, pillar, ball, walker} {
		scene.AddBody(body)
	}

	return scene, walker
}

func RunScene() {
	fmt.Println("🧪 Scene queries: a capsule walking through props")
	fmt.Println("==================================================")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	scene, walker := SetupScene(logger)
	debugger := &SimpleDebugger{}

	for _, eventType := range []collide.EventType{collide.OVERLAP_ENTER, collide.OVERLAP_EXIT} {
		scene.Events.Subscribe(eventType, debugger.DebugEvent)
	}

	const steps = 10
	for step := 0; step < steps; step++ {
		fmt.Printf("--- STEP %d, walker at %v ---\n", step+1, walker.Transform.Position)

		pairs := scene.Update()
		debugger.DebugPairs(pairs)

		// Look straight ahead from the walker, ignoring itself and the ground
		ahead := func(b *collide.Body) bool { return b != walker && b.Name != "ground" }
		body, hit, ok := scene.Raycast(walker.Transform.Position, mgl64.Vec3{1, 0, 0}, 20, ahead)
		debugger.DebugRaycast("ahead", body, hit, ok)

		walker.Transform.Position = walker.Transform.Position.Add(mgl64.Vec3{1, 0, 0})
	}

	fmt.Println()
	fmt.Println("--- Point queries ---")
	body, hit, ok := scene.LineTrace(mgl64.Vec3{-4, 3, 10}, mgl64.Vec3{-4, 3, -10}, nil)
	debugger.DebugRaycast("down onto the ball", body, hit, ok)

	query := shape.NewSphere(2)
	around := shape.At(mgl64.Vec3{6, 0, 1}, mgl64.QuatIdent())
	for _, b := range scene.Overlap(query, around, nil) {
		fmt.Printf("   query sphere touches %s\n", b.Name)
	}

	// Narrow phase directly, without the scene
	ball := shape.NewSphere(0.5)
	pillar := shape.NewCylinder(0.75, 3)
	for _, x := range []float64{6.5, 7.0, 7.5} {
		touching := gjk.Intersect(ball, shape.At(mgl64.Vec3{x, 0, 1}, mgl64.QuatIdent()), pillar, shape.At(mgl64.Vec3{8, 0, 3}, mgl64.QuatIdent()), gjk.DefaultMaxIterations)
		fmt.Printf("   ball at x=%.1f touches the pillar: %v\n", x, touching)
	}

	fmt.Println("Done!")
}

func main() {
	RunScene()
}
