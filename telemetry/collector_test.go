package telemetry

import (
	"testing"

	"github.com/pthm-cable/stablefluids/fluid"
)

func TestCollectorWindowing(t *testing.T) {
	c := NewCollector(1.0, 0.25) // four ticks per window

	for tick := int32(1); tick <= 3; tick++ {
		if c.ShouldFlush(tick) {
			t.Fatalf("ShouldFlush(%d) = true before window end", tick)
		}
	}
	if !c.ShouldFlush(4) {
		t.Fatal("ShouldFlush(4) = false at window end")
	}

	sim := fluid.New(4)
	sim.AddDensity(2, 2, 10)
	c.RecordInjection(10)
	c.RecordSplat()
	for i := 0; i < 4; i++ {
		c.AdvanceTime(0.25)
	}

	stats := c.Flush(4, sim, 2)
	if stats.WindowStartTick != 0 || stats.WindowEndTick != 4 {
		t.Errorf("window = [%d, %d], want [0, 4]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.SimTimeSec != 1.0 {
		t.Errorf("SimTimeSec = %v, want 1", stats.SimTimeSec)
	}
	if stats.InjectedMass != 10 || stats.Splats != 1 || stats.Emitters != 2 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.Mass != 10 {
		t.Errorf("Mass = %v, want 10", stats.Mass)
	}

	if c.ShouldFlush(5) {
		t.Error("window did not restart after flush")
	}
	next := c.Flush(8, sim, 0)
	if next.InjectedMass != 0 || next.Splats != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollectorZeroDT(t *testing.T) {
	c := NewCollector(1.0, 0)
	if !c.ShouldFlush(1) {
		t.Error("zero dt should flush every tick")
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(1.0, 0.5)
	c.AdvanceTime(0.5)
	c.RecordInjection(3)
	c.Reset(10)

	if c.ShouldFlush(11) {
		t.Error("window not restarted at reset tick")
	}
	stats := c.Flush(12, fluid.New(2), 0)
	if stats.SimTimeSec != 0 || stats.InjectedMass != 0 {
		t.Errorf("reset left state behind: %+v", stats)
	}
}
