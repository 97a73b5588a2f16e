package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestInterestFor_RoundsHalfUpAtPosting(t *testing.T) {
	pct := &Plan{InterestType: InterestPercentage, InterestRate: d("2.5")}

	cases := []struct {
		principal string
		want      string
	}{
		{"100", "2.5"},
		{"102.50", "2.56"},   // 2.5625 rounds up
		{"100.10", "2.5"},    // 2.5025 rounds down
		{"0.01", "0"},        // 0.00025 vanishes
		{"999.99", "25"},     // 24.99975
	}
	for _, tc := range cases {
		got := pct.InterestFor(d(tc.principal))
		if !got.Equal(d(tc.want)) {
			t.Errorf("InterestFor(%s) = %s, want %s", tc.principal, got, tc.want)
		}
	}

	flat := &Plan{InterestType: InterestFixedAmount, InterestRate: d("7.255")}
	if got := flat.InterestFor(d("123456")); !got.Equal(d("7.26")) {
		t.Errorf("fixed amount = %s, want 7.26", got)
	}
}

func TestInBounds_Inclusive(t *testing.T) {
	p := &Plan{MinAmount: d("100"), MaxAmount: d("1000")}

	for _, amount := range []string{"100", "1000", "550.55"} {
		if !p.InBounds(d(amount)) {
			t.Errorf("%s should be in bounds", amount)
		}
	}
	for _, amount := range []string{"99.99", "1000.01"} {
		if p.InBounds(d(amount)) {
			t.Errorf("%s should be out of bounds", amount)
		}
	}
}

func TestPeriodKey_UTCDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 23:30 EST on Feb 28 is already March 1 in UTC.
	local := time.Date(2026, 2, 28, 23, 30, 0, 0, est)
	if got := PeriodKey(local); got != "2026-03-01" {
		t.Errorf("PeriodKey = %s, want 2026-03-01", got)
	}

	a := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	if PeriodKey(a) != PeriodKey(b) {
		t.Error("times within one UTC day must share a period key")
	}
}

func TestTransactionFilter_Matches(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tx := &Transaction{Type: TxInterest, CreatedAt: now}

	cases := []struct {
		name   string
		filter TransactionFilter
		want   bool
	}{
		{"empty matches all", TransactionFilter{}, true},
		{"type match", TransactionFilter{Type: TxInterest}, true},
		{"type mismatch", TransactionFilter{Type: TxDeposit}, false},
		{"in window", TransactionFilter{From: now.AddDate(0, 0, -1), To: now.AddDate(0, 0, 1)}, true},
		{"before window", TransactionFilter{From: now.Add(time.Hour)}, false},
		{"to is exclusive", TransactionFilter{To: now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tx); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
