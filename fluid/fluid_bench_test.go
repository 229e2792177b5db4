package fluid

import "testing"

func BenchmarkStep(b *testing.B) {
	s := New(128)
	seedSimulation(s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(0.016, 0.0001, 0.0001)
	}
}

func BenchmarkProject(b *testing.B) {
	u, v := sinusoidalFlow(128, 0.1, 6)
	p := NewGrid(128)
	div := NewGrid(128)
	solver := NewSolver(DefaultIterations)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		solver.Project(u, v, p, div)
	}
}

func BenchmarkAdvect(b *testing.B) {
	u, v := sinusoidalFlow(128, 0.1, 6)
	src := NewGrid(128)
	dst := NewGrid(128)
	seedGrid := New(128)
	seedSimulation(seedGrid)
	src.CopyFrom(seedGrid.Density.Cur)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Advect(Scalar, dst, src, u, v, 0.016)
	}
}
