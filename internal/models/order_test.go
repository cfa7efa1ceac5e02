package models

import (
	"reflect"
	"testing"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{OrderStatusPending, OrderStatusEscrow, true},
		{OrderStatusEscrow, OrderStatusCompleted, true},
		{OrderStatusEscrow, OrderStatusDisputed, true},
		{OrderStatusDisputed, OrderStatusCompleted, true},
		{OrderStatusDisputed, OrderStatusRefunded, true},

		// Admin force-refund without a prior dispute
		{OrderStatusEscrow, OrderStatusRefunded, true},

		// Invalid transitions
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusDisputed, false},
		{OrderStatusCompleted, OrderStatusDisputed, false},
		{OrderStatusCompleted, OrderStatusRefunded, false},
		{OrderStatusCompleted, OrderStatusEscrow, false},
		{OrderStatusRefunded, OrderStatusEscrow, false},
		{OrderStatusRefunded, OrderStatusCompleted, false},
		{OrderStatusDisputed, OrderStatusEscrow, false},
		{OrderStatusEscrow, OrderStatusPending, false},
		{"nonexistent", OrderStatusEscrow, false},
		{OrderStatusEscrow, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		OrderStatusPending, OrderStatusEscrow, OrderStatusCompleted,
		OrderStatusDisputed, OrderStatusRefunded,
	}

	for _, status := range allStatuses {
		if _, ok := ValidOrderTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidOrderTransitions map", status)
		}
	}
}

func TestTransitionsInto(t *testing.T) {
	tests := []struct {
		to   string
		want []string
	}{
		{OrderStatusCompleted, []string{OrderStatusDisputed, OrderStatusEscrow}},
		{OrderStatusRefunded, []string{OrderStatusDisputed, OrderStatusEscrow}},
		{OrderStatusDisputed, []string{OrderStatusEscrow}},
		{OrderStatusEscrow, []string{OrderStatusPending}},
		{OrderStatusPending, nil},
	}
	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			got := TransitionsInto(tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TransitionsInto(%q) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{OrderStatusCompleted, OrderStatusRefunded}
	for _, status := range terminal {
		if !IsTerminal(status) {
			t.Errorf("status %q should be terminal", status)
		}
	}
	for _, status := range []string{OrderStatusPending, OrderStatusEscrow, OrderStatusDisputed} {
		if IsTerminal(status) {
			t.Errorf("status %q should not be terminal", status)
		}
	}
}
