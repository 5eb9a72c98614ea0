// Package receipts implements the interaction-receipt issuers consumed by the
// hub. A series is a named stream of sequentially numbered receipts; balances
// are tracked per recipient so the hub can answer relationship queries from
// receipt custody alone.
package receipts

import (
	"errors"
	"fmt"
)

var (
	errNilState   = errors.New("receipts: state not configured")
	errEmptyKey   = errors.New("receipts: series key required")
	errZeroSeries = errors.New("receipts: series does not exist")
)

// State is the persistence surface required by the ledger.
type State interface {
	ReceiptSeriesGet(series string) (uint64, bool, error)
	ReceiptSeriesPut(series string, minted uint64) error
	ReceiptBalanceGet(series string, holder [20]byte) (uint64, error)
	ReceiptBalancePut(series string, holder [20]byte, balance uint64) error
}

// Ledger issues receipts for a family of series ("follow", "echo", "mirror").
type Ledger struct {
	kind  string
	state State
}

// NewLedger constructs a receipt ledger for the supplied kind.
func NewLedger(kind string, state State) *Ledger {
	return &Ledger{kind: kind, state: state}
}

func (l *Ledger) seriesKey(series string) string {
	return l.kind + "/" + series
}

// SeriesKey derives the canonical key for a numeric series identifier.
func SeriesKey(parts ...uint64) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += fmt.Sprintf("%d", p)
	}
	return key
}

// Create establishes a new series. Creating an existing series is an error so
// lazily deployed issuers keep their write-once guarantee.
func (l *Ledger) Create(series string) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if series == "" {
		return errEmptyKey
	}
	key := l.seriesKey(series)
	if _, ok, err := l.state.ReceiptSeriesGet(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("receipts: series %s already exists", key)
	}
	return l.state.ReceiptSeriesPut(key, 0)
}

// Exists reports whether the series has been created.
func (l *Ledger) Exists(series string) (bool, error) {
	if l == nil || l.state == nil {
		return false, errNilState
	}
	_, ok, err := l.state.ReceiptSeriesGet(l.seriesKey(series))
	return ok, err
}

// Mint issues the next receipt in the series to the holder and returns its id.
// Receipt ids are 1-based and strictly sequential per series.
func (l *Ledger) Mint(series string, holder [20]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	key := l.seriesKey(series)
	minted, ok, err := l.state.ReceiptSeriesGet(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errZeroSeries
	}
	minted++
	if err := l.state.ReceiptSeriesPut(key, minted); err != nil {
		return 0, err
	}
	balance, err := l.state.ReceiptBalanceGet(key, holder)
	if err != nil {
		return 0, err
	}
	if err := l.state.ReceiptBalancePut(key, holder, balance+1); err != nil {
		return 0, err
	}
	return minted, nil
}

// BalanceOf returns the number of receipts the holder custodies in the series.
func (l *Ledger) BalanceOf(series string, holder [20]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	return l.state.ReceiptBalanceGet(l.seriesKey(series), holder)
}

// Minted returns the total number of receipts issued in the series.
func (l *Ledger) Minted(series string) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	minted, _, err := l.state.ReceiptSeriesGet(l.seriesKey(series))
	return minted, err
}
