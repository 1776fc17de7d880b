package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"billing/internal/domain"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		gatewayStatus string
		want          domain.PaymentStatus
	}{
		{"COMPLETED", domain.PaymentStatusSuccess},
		{"CANCELED", domain.PaymentStatusCanceled},
		{"PENDING", domain.PaymentStatusPending},
	}
	for _, tc := range cases {
		got, err := domain.MapGatewayStatus(tc.gatewayStatus)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestMapGatewayStatus_RejectsUnknownLiterals(t *testing.T) {
	// Опечатки и посторонние статусы не должны молча превращаться в PENDING.
	for _, gatewayStatus := range []string{"PENING", "COMPLTED", "REFUNDED", "completed", ""} {
		_, err := domain.MapGatewayStatus(gatewayStatus)
		require.ErrorIs(t, err, domain.ErrUnmappedStatus, "status: %q", gatewayStatus)
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from domain.PaymentStatus
		to   domain.PaymentStatus
		want bool
	}{
		{domain.PaymentStatusPending, domain.PaymentStatusSuccess, true},
		{domain.PaymentStatusPending, domain.PaymentStatusCanceled, true},
		{domain.PaymentStatusPending, domain.PaymentStatusPending, false},
		{domain.PaymentStatusSuccess, domain.PaymentStatusCanceled, false},
		{domain.PaymentStatusSuccess, domain.PaymentStatusPending, false},
		{domain.PaymentStatusCanceled, domain.PaymentStatusSuccess, false},
	}
	for _, tc := range cases {
		payment := &domain.Payment{Status: tc.from}
		require.Equal(t, tc.want, payment.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
