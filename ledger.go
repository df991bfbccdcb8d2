package api

import (
	"sync"
	"time"

	"github.com/bwesterb/go-ristretto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Ledger is the reference in-memory order ledger. It holds only ciphertexts
// and proof material: encrypted balances per party and asset, open orders
// with their homomorphically tracked remainders, and the fill history. All
// state transitions go through the settlement verifier.
type Ledger struct {
	mtx        sync.Mutex
	clock      func() time.Time
	settler    *SettlementVerifier
	production bool

	orders   map[string]*orderState
	balances map[balanceKey]*Ciphertext
}

type balanceKey struct {
	party [32]byte
	asset string
}

type orderState struct {
	order *Order
	// makerBalance is the encrypted balance snapshot the order's balance
	// proof was built against, before escrow.
	makerBalance  *Ciphertext
	remainingGive *Ciphertext
	remainingWant *Ciphertext
	fills         []*Fill
}

type Fill struct {
	ID       string
	TakeID   string
	Taker    [32]byte
	Quote    *FillQuote
	FilledAt time.Time
}

type FillOutcome struct {
	FillID  string
	OrderID string
	Status  OrderStatus
	Quote   *FillQuote
}

// NewLedger wires the ledger to a settlement verifier. A nil clock means wall
// time; tests inject their own. In production mode every submission must
// carry a live prover artifact.
func NewLedger(settler *SettlementVerifier, production bool, clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	settler.Clock = clock
	return &Ledger{
		clock:      clock,
		settler:    settler,
		production: production,
		orders:     make(map[string]*orderState),
		balances:   make(map[balanceKey]*Ciphertext),
	}
}

// CreditBalance funds an account homomorphically. The ledger never sees the
// amount inside ct.
func (l *Ledger) CreditBalance(party [32]byte, asset string, ct *Ciphertext) error {
	if _, err := LookupAsset(asset); err != nil {
		return err
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.credit(party, asset, ct)
	return nil
}

func (l *Ledger) Balance(party [32]byte, asset string) *Ciphertext {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.balance(party, asset)
}

// SubmitOrder admits a verified order and escrows its give leg from the
// maker's balance. Rejections leave the ledger untouched.
func (l *Ledger) SubmitOrder(o *Order, artifact *ProofArtifact) error {
	if _, err := LookupAsset(o.GiveAsset); err != nil {
		return err
	}
	if _, err := LookupAsset(o.WantAsset); err != nil {
		return err
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if _, found := l.orders[o.ID]; found {
		return errors.Wrapf(ErrSubmission, "order %s already submitted", o.ID)
	}
	makerBalance := l.balances[balanceKey{o.Maker, o.GiveAsset}]
	if makerBalance == nil {
		return errors.Wrapf(ErrSubmission, "maker has no funded %s account", o.GiveAsset)
	}
	if l.production {
		if err := VerifyArtifact(artifact, o.Digest(), true); err != nil {
			return err
		}
	}
	if err := l.settler.VerifyOrder(o, makerBalance); err != nil {
		return err
	}

	l.debit(o.Maker, o.GiveAsset, o.EncryptedGive)
	l.orders[o.ID] = &orderState{
		order:         o,
		makerBalance:  makerBalance,
		remainingGive: o.EncryptedGive,
		remainingWant: o.EncryptedWant,
	}
	return nil
}

// TakeOrder settles a take against an open order: full verification, amount
// recovery and the fill rules, then the homomorphic balance and remainder
// updates. A failed take mutates nothing.
func (l *Ledger) TakeOrder(take *TakeRequest, artifact *ProofArtifact) (*FillOutcome, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	st := l.orders[take.OrderID]
	if st == nil {
		return nil, errors.Wrapf(ErrSubmission, "unknown order %s", take.OrderID)
	}
	o := st.order
	if o.Status.Terminal() {
		return nil, errors.Wrapf(ErrSubmission, "order %s is %s", o.ID, o.Status)
	}
	if !l.clock().Before(o.ExpiresAt) {
		l.expire(st)
		return nil, errors.Wrapf(ErrSubmission, "order %s expired", o.ID)
	}
	takerBalance := l.balances[balanceKey{take.Taker, o.WantAsset}]
	if takerBalance == nil {
		return nil, errors.Wrapf(ErrSubmission, "taker has no funded %s account", o.WantAsset)
	}
	if l.production {
		if err := VerifyArtifact(artifact, take.Digest(o.Digest()), true); err != nil {
			return nil, err
		}
	}

	quote, err := l.settler.Settle(SettleParams{
		Order:         o,
		Take:          take,
		MakerBalance:  st.makerBalance,
		TakerBalance:  takerBalance,
		RemainingGive: st.remainingGive,
		RemainingWant: st.remainingWant,
	})
	if err != nil {
		return nil, err
	}

	// The taker pays the give leg from its want-asset balance and receives
	// the want leg; the maker's side was escrowed at submission.
	l.debit(take.Taker, o.WantAsset, take.EncryptedGive)
	l.credit(take.Taker, o.GiveAsset, take.EncryptedWant)
	l.credit(o.Maker, o.WantAsset, take.EncryptedGive)

	st.remainingGive = st.remainingGive.Combine(take.EncryptedWant.Neg())
	st.remainingWant = st.remainingWant.Combine(take.EncryptedGive.Neg())
	if quote.Full {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartialFill
	}

	fill := &Fill{
		ID:       uuid.New().String(),
		TakeID:   take.ID,
		Taker:    take.Taker,
		Quote:    quote,
		FilledAt: l.clock(),
	}
	st.fills = append(st.fills, fill)

	return &FillOutcome{
		FillID:  fill.ID,
		OrderID: o.ID,
		Status:  o.Status,
		Quote:   quote,
	}, nil
}

// CancelOrder refunds the unfilled remainder to the maker and closes the
// order. Only the maker cancels, and terminal orders stay as they are.
func (l *Ledger) CancelOrder(id string, maker [32]byte) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	st := l.orders[id]
	if st == nil {
		return errors.Wrapf(ErrSubmission, "unknown order %s", id)
	}
	if st.order.Maker != maker {
		return errors.Wrapf(ErrSubmission, "order %s belongs to another maker", id)
	}
	if st.order.Status.Terminal() {
		return errors.Wrapf(ErrSubmission, "order %s is %s", id, st.order.Status)
	}

	l.credit(st.order.Maker, st.order.GiveAsset, st.remainingGive)
	st.order.Status = StatusCancelled
	return nil
}

// SweepExpired expires every overdue open order and refunds its remainder.
func (l *Ledger) SweepExpired() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	var expired []string
	now := l.clock()
	for id, st := range l.orders {
		if st.order.Status.Terminal() || now.Before(st.order.ExpiresAt) {
			continue
		}
		l.expire(st)
		expired = append(expired, id)
	}
	return expired
}

func (l *Ledger) Order(id string) (*Order, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	st := l.orders[id]
	if st == nil {
		return nil, errors.Wrapf(ErrSubmission, "unknown order %s", id)
	}
	return st.order, nil
}

func (l *Ledger) Fills(id string) []*Fill {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	st := l.orders[id]
	if st == nil {
		return nil
	}
	return append([]*Fill(nil), st.fills...)
}

func (l *Ledger) expire(st *orderState) {
	l.credit(st.order.Maker, st.order.GiveAsset, st.remainingGive)
	st.order.Status = StatusExpired
}

func (l *Ledger) balance(party [32]byte, asset string) *Ciphertext {
	if b := l.balances[balanceKey{party, asset}]; b != nil {
		return b
	}
	return zeroCiphertext()
}

func (l *Ledger) credit(party [32]byte, asset string, ct *Ciphertext) {
	key := balanceKey{party, asset}
	l.balances[key] = l.balance(party, asset).Combine(ct)
}

func (l *Ledger) debit(party [32]byte, asset string, ct *Ciphertext) {
	key := balanceKey{party, asset}
	l.balances[key] = l.balance(party, asset).Combine(ct.Neg())
}

func zeroCiphertext() *Ciphertext {
	var c1, c2 ristretto.Point
	c1.SetZero()
	c2.SetZero()
	return &Ciphertext{C1: &c1, C2: &c2}
}
