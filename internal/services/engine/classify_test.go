package engine

import (
	"testing"

	"LunarPulse/internal/domain/models"
)

func TestClassifyOpenInterestCloseLongs(t *testing.T) {
	out := ClassifyOpenInterest(96, 100, 10, DefaultOIThresholds())
	if out.Signal != SignalCloseLongs || out.Side != models.SideShort {
		t.Fatalf("expected close-longs/short, got %s/%s", out.Signal, out.Side)
	}
}

func TestClassifyOpenInterestRektOverrides(t *testing.T) {
	// 115 trips both the peak rule and the super-high rule; the later rule wins.
	out := ClassifyOpenInterest(115, 100, 10, DefaultOIThresholds())
	if out.Signal != SignalRektWarning || out.Side != models.SideShort {
		t.Fatalf("expected rekt-warning/short, got %s/%s", out.Signal, out.Side)
	}
}

func TestClassifyOpenInterestOpenLongs(t *testing.T) {
	out := ClassifyOpenInterest(0.4, 100, 10, DefaultOIThresholds())
	if out.Signal != SignalOpenLongs || out.Side != models.SideLong {
		t.Fatalf("expected open-longs/long, got %s/%s", out.Signal, out.Side)
	}
}

func TestClassifyOpenInterestNone(t *testing.T) {
	out := ClassifyOpenInterest(50, 100, 10, DefaultOIThresholds())
	if out.Signal != "" || out.Side != models.SideNone {
		t.Fatalf("expected no signal, got %s/%s", out.Signal, out.Side)
	}
}

func TestClassifyOpenInterestIdempotent(t *testing.T) {
	th := DefaultOIThresholds()
	first := ClassifyOpenInterest(96, 100, 10, th)
	for i := 0; i < 10; i++ {
		if got := ClassifyOpenInterest(96, 100, 10, th); got != first {
			t.Fatalf("classification not idempotent: %+v vs %+v", got, first)
		}
	}
}

func TestClassifyDirectionBias(t *testing.T) {
	if got := ClassifyDirectionBias(0.01); got != models.SideLong {
		t.Fatalf("positive bias must be long, got %s", got)
	}
	if got := ClassifyDirectionBias(-3); got != models.SideShort {
		t.Fatalf("negative bias must be short, got %s", got)
	}
	// Zero bias classifies as short; the boundary is deliberate.
	if got := ClassifyDirectionBias(0); got != models.SideShort {
		t.Fatalf("zero bias must be short, got %s", got)
	}
}

func TestAltAction(t *testing.T) {
	if AltAction(models.SideLong) != "BUY" {
		t.Fatalf("long must map to BUY")
	}
	if AltAction(models.SideShort) != "SELL" {
		t.Fatalf("short must map to SELL")
	}
}

func TestClassifyLunarSellOnNewMoonDrop(t *testing.T) {
	state := models.LunarState{Symbol: "BTCUSDT", LastNewMoonPrice: 50000, LastFullMoonPrice: 52000}
	out := ClassifyLunar(0.2, 48000, state)
	if out.Signal != SignalSell || out.Side != models.SideShort {
		t.Fatalf("expected sell/short, got %s/%s", out.Signal, out.Side)
	}
	if out.State.LastNewMoonPrice != 48000 {
		t.Fatalf("reference price must update on fire, got %v", out.State.LastNewMoonPrice)
	}
	if out.State.LastFullMoonPrice != 52000 {
		t.Fatalf("full moon reference must be untouched, got %v", out.State.LastFullMoonPrice)
	}
}

func TestClassifyLunarBuyOnFullMoonRise(t *testing.T) {
	state := models.LunarState{Symbol: "BTCUSDT", LastNewMoonPrice: 50000, LastFullMoonPrice: 52000}
	out := ClassifyLunar(0.8, 53000, state)
	if out.Signal != SignalBuy || out.Side != models.SideLong {
		t.Fatalf("expected buy/long, got %s/%s", out.Signal, out.Side)
	}
	if out.State.LastFullMoonPrice != 53000 {
		t.Fatalf("reference price must update on fire, got %v", out.State.LastFullMoonPrice)
	}
}

func TestClassifyLunarDeadZone(t *testing.T) {
	state := models.LunarState{Symbol: "BTCUSDT", LastNewMoonPrice: 50000, LastFullMoonPrice: 52000}
	// phase == 0.5 is neither window; nothing may fire regardless of price.
	out := ClassifyLunar(0.5, 1, state)
	if out.Signal != "" || out.Side != models.SideNone {
		t.Fatalf("expected dead zone to emit nothing, got %s/%s", out.Signal, out.Side)
	}
	if out.State != state {
		t.Fatalf("dead zone must not mutate state")
	}
}

func TestClassifyLunarNoPriorReference(t *testing.T) {
	out := ClassifyLunar(0.2, 48000, models.LunarState{Symbol: "BTCUSDT"})
	if out.Signal != "" {
		t.Fatalf("no prior reference price, nothing may fire: got %s", out.Signal)
	}
}
