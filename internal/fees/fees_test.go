package fees_test

import (
	"testing"

	"github.com/Cardboom/cardboomtest-sub000/internal/fees"
)

func TestPlatformFee_DefaultRate(t *testing.T) {
	s := fees.DefaultSchedule()

	// 2.5% of $100.00 is $2.50
	if fee := s.PlatformFee(10000); fee != 250 {
		t.Errorf("fee on 10000 = %d, want 250", fee)
	}
}

func TestPlatformFee_RoundsHalfUp(t *testing.T) {
	s := fees.DefaultSchedule()

	// 2.5% of 101 cents is 2.525, rounds to 3
	if fee := s.PlatformFee(101); fee != 3 {
		t.Errorf("fee on 101 = %d, want 3", fee)
	}
	// 2.5% of 99 cents is 2.475, rounds to 2
	if fee := s.PlatformFee(99); fee != 2 {
		t.Errorf("fee on 99 = %d, want 2", fee)
	}
}

func TestPlatformFee_Zero(t *testing.T) {
	s := fees.DefaultSchedule()
	if fee := s.PlatformFee(0); fee != 0 {
		t.Errorf("fee on 0 = %d, want 0", fee)
	}
}

func TestNet_PlusFeeEqualsGross(t *testing.T) {
	s := fees.NewSchedule(0.031)

	for _, gross := range []int64{1, 99, 100, 101, 12345, 1000000} {
		fee := s.PlatformFee(gross)
		net := s.Net(gross)
		if net+fee != gross {
			t.Errorf("gross %d: net %d + fee %d != gross", gross, net, fee)
		}
	}
}

func TestPlatformFee_ZeroRate(t *testing.T) {
	s := fees.NewSchedule(0)
	if fee := s.PlatformFee(99999); fee != 0 {
		t.Errorf("zero-rate fee = %d, want 0", fee)
	}
}
