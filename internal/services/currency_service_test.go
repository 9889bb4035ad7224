package services

import (
	"context"
	"testing"
	"time"

	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"
)

func newCurrencyFixture() (*memFixture, *CurrencyService) {
	m := newMemFixture()
	return m, NewCurrencyService(fakeTxRunner{}, nil, memCurrencies{m}, memRates{m}, memSync{m})
}

func TestCreateCurrencyValidation(t *testing.T) {
	_, service := newCurrencyFixture()
	cases := []CurrencyRequest{
		{Code: "usd", Name: "US Dollar", DecimalPlaces: 2},
		{Code: "USD", Name: "", DecimalPlaces: 2},
		{Code: "USD", Name: "US Dollar", DecimalPlaces: 9},
		{Code: "USD", Name: "US Dollar", DecimalPlaces: -1},
	}
	for _, req := range cases {
		if _, err := service.CreateCurrency(context.Background(), req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}
	if _, err := service.CreateCurrency(context.Background(), CurrencyRequest{Code: "BTC", Name: "Bitcoin", DecimalPlaces: 8, IsCrypto: true}); err != nil {
		t.Fatalf("8 decimal places should be accepted: %v", err)
	}
}

func TestCreateCurrencyDuplicateCode(t *testing.T) {
	m, service := newCurrencyFixture()
	m.addCurrency("USD", 2, true)
	_, err := service.CreateCurrency(context.Background(), CurrencyRequest{Code: "USD", Name: "US Dollar", DecimalPlaces: 2})
	if _, ok := err.(DuplicateNameError); !ok {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestSetDefaultCurrencyMovesFlag(t *testing.T) {
	m, service := newCurrencyFixture()
	usd := m.addCurrency("USD", 2, true)
	eur := m.addCurrency("EUR", 2, false)

	if err := service.SetDefaultCurrency(context.Background(), eur); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if m.currencies[usd].IsDefault || !m.currencies[eur].IsDefault {
		t.Fatalf("default flag did not move: usd=%v eur=%v", m.currencies[usd].IsDefault, m.currencies[eur].IsDefault)
	}
}

func TestDeleteCurrencyGuards(t *testing.T) {
	m, service := newCurrencyFixture()
	usd := m.addCurrency("USD", 2, true)
	eur := m.addCurrency("EUR", 2, false)
	m.addAccount(m.addWallet("Cash"), eur)

	if err := service.DeleteCurrency(context.Background(), usd); err == nil {
		t.Fatalf("expected default currency deletion to fail")
	}
	err := service.DeleteCurrency(context.Background(), eur)
	if _, ok := err.(EntityInUseError); !ok {
		t.Fatalf("expected EntityInUseError, got %v", err)
	}

	chf := m.addCurrency("CHF", 2, false)
	if err := service.DeleteCurrency(context.Background(), chf); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !m.hasTombstone(store.TableCurrency, int64Key(chf)) {
		t.Fatalf("missing currency tombstone")
	}
}

func TestRecordRateAppendsHistory(t *testing.T) {
	m, service := newCurrencyFixture()
	m.addCurrency("USD", 2, true)
	eur := m.addCurrency("EUR", 2, false)

	first, err := fixedpoint.FromDecimalString("0.92")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := fixedpoint.FromDecimalString("0.95")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := service.RecordRate(context.Background(), eur, first, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := service.RecordRate(context.Background(), eur, second, time.Unix(1700001000, 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(m.rates[eur]) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(m.rates[eur]))
	}
	current, err := service.CurrentRate(context.Background(), eur)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if fixedpoint.Compare(current, second) != 0 {
		t.Fatalf("current rate = %+v, want latest", current)
	}
}

func TestRecordRateRejectsDefaultAndNonPositive(t *testing.T) {
	m, service := newCurrencyFixture()
	usd := m.addCurrency("USD", 2, true)
	eur := m.addCurrency("EUR", 2, false)

	if err := service.RecordRate(context.Background(), usd, fixedpoint.One(), time.Now()); err == nil {
		t.Fatalf("expected rejection for default currency")
	}
	if err := service.RecordRate(context.Background(), eur, fixedpoint.Zero, time.Now()); err == nil {
		t.Fatalf("expected rejection for zero rate")
	}
}

func TestCurrentRateIdentityFallbacks(t *testing.T) {
	m, service := newCurrencyFixture()
	usd := m.addCurrency("USD", 2, true)
	jpy := m.addCurrency("JPY", 0, false)

	for _, currencyID := range []int64{usd, jpy} {
		rate, err := service.CurrentRate(context.Background(), currencyID)
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		if fixedpoint.Compare(rate, fixedpoint.One()) != 0 {
			t.Fatalf("rate = %+v, want identity", rate)
		}
	}
}

func TestUpdateSystemCurrencyProtected(t *testing.T) {
	m, service := newCurrencyFixture()
	usd := m.addCurrency("USD", 2, true)
	err := service.UpdateCurrency(context.Background(), usd, CurrencyRequest{Code: "USD", Name: "Renamed", DecimalPlaces: 2})
	if _, ok := err.(ProtectedEntityError); !ok {
		t.Fatalf("expected ProtectedEntityError, got %v", err)
	}
}
