package sla

import (
	"testing"
	"time"
)

func TestCalculate_HighPriority(t *testing.T) {
	calc := NewCalculator(NewDefaultTable())
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	d := calc.Calculate(PriorityHigh, createdAt)

	if want := time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC); !d.AcceptDue.Equal(want) {
		t.Errorf("Expected acceptDue %v, got %v", want, d.AcceptDue)
	}
	if want := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC); !d.ArriveDue.Equal(want) {
		t.Errorf("Expected arriveDue %v, got %v", want, d.ArriveDue)
	}
	if want := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC); !d.CompleteDue.Equal(want) {
		t.Errorf("Expected completeDue %v, got %v", want, d.CompleteDue)
	}
}

func TestCalculate_OrderingHoldsForAllTiers(t *testing.T) {
	calc := NewCalculator(NewDefaultTable())
	createdAt := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

	for _, priority := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		d := calc.Calculate(priority, createdAt)

		if !d.AcceptDue.After(createdAt) {
			t.Errorf("%s: acceptDue %v not after createdAt %v", priority, d.AcceptDue, createdAt)
		}
		if !d.ArriveDue.After(d.AcceptDue) {
			t.Errorf("%s: arriveDue %v not after acceptDue %v", priority, d.ArriveDue, d.AcceptDue)
		}
		if !d.CompleteDue.After(d.ArriveDue) {
			t.Errorf("%s: completeDue %v not after arriveDue %v", priority, d.CompleteDue, d.ArriveDue)
		}
	}
}

func TestCalculate_UnknownTierFallsBackToMedium(t *testing.T) {
	calc := NewCalculator(NewDefaultTable())
	createdAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	unknown := calc.Calculate(Priority("urgent"), createdAt)
	medium := calc.Calculate(PriorityMedium, createdAt)

	if !unknown.AcceptDue.Equal(medium.AcceptDue) {
		t.Errorf("Expected unknown tier acceptDue %v to match medium %v", unknown.AcceptDue, medium.AcceptDue)
	}
	if !unknown.ArriveDue.Equal(medium.ArriveDue) {
		t.Errorf("Expected unknown tier arriveDue %v to match medium %v", unknown.ArriveDue, medium.ArriveDue)
	}
	if !unknown.CompleteDue.Equal(medium.CompleteDue) {
		t.Errorf("Expected unknown tier completeDue %v to match medium %v", unknown.CompleteDue, medium.CompleteDue)
	}
}

func TestCalculate_DeterministicAcrossCalls(t *testing.T) {
	calc := NewCalculator(NewDefaultTable())
	createdAt := time.Date(2024, 11, 2, 23, 45, 0, 0, time.UTC)

	first := calc.Calculate(PriorityLow, createdAt)
	time.Sleep(5 * time.Millisecond)
	second := calc.Calculate(PriorityLow, createdAt)

	if first != second {
		t.Errorf("Expected identical deadlines for repeated calls, got %+v and %+v", first, second)
	}
}

func TestCalculate_HigherPriorityIsTighter(t *testing.T) {
	calc := NewCalculator(NewDefaultTable())
	createdAt := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	high := calc.Calculate(PriorityHigh, createdAt)
	medium := calc.Calculate(PriorityMedium, createdAt)
	low := calc.Calculate(PriorityLow, createdAt)

	if !high.CompleteDue.Before(medium.CompleteDue) {
		t.Error("Expected high completeDue before medium")
	}
	if !medium.CompleteDue.Before(low.CompleteDue) {
		t.Error("Expected medium completeDue before low")
	}
}
