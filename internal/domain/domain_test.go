package domain

import "testing"

func TestActionIsValid(t *testing.T) {
	for _, a := range []Action{ActionBuy, ActionSell, ActionHold} {
		if !a.IsValid() {
			t.Fatalf("expected %s to be valid", a)
		}
	}
	if Action("SHORT").IsValid() {
		t.Fatal("unexpected valid action")
	}
}

func TestDefaultSymbolsHaveBasePrices(t *testing.T) {
	for _, s := range DefaultSymbols {
		if BasePrices[s] <= 0 {
			t.Fatalf("missing base price for %s", s)
		}
	}
}
