package api

import (
	"testing"
	"time"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/MixinNetwork/go-number"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swapFixture struct {
	settler      *SettlementVerifier
	builder      *OrderBuilder
	engine       *MatchEngine
	makerBalance *BalanceWitness
	takerBalance *BalanceWitness
	takerKey     *schnorrkel.MiniSecretKey
	order        *Order
	secrets      *OrderSecrets
}

func newSwapFixture(t *testing.T, minFill string) *swapFixture {
	require := require.New(t)

	entropy := CryptoEntropy{}
	view, pub := GenerateProtocolKey(entropy)
	settler := NewSettlementVerifier(view, 1<<12)

	builder := NewOrderBuilder(pub)
	makerBalance := NewBalanceWitness(1000, pub, entropy)

	p := testOrderParams(t, makerBalance)
	p.MinFill = number.FromString(minFill)
	order, secrets, err := builder.Build(p)
	require.Nil(err)

	takerKey, err := schnorrkel.GenerateMiniSecretKey()
	require.Nil(err)

	return &swapFixture{
		settler:      settler,
		builder:      builder,
		engine:       NewMatchEngine(pub),
		makerBalance: makerBalance,
		takerBalance: NewBalanceWitness(2000, pub, entropy),
		takerKey:     takerKey,
		order:        order,
		secrets:      secrets,
	}
}

func (f *swapFixture) settle(take *TakeRequest) (*FillQuote, error) {
	return f.settler.Settle(SettleParams{
		Order:         f.order,
		Take:          take,
		MakerBalance:  f.makerBalance.Ciphertext,
		TakerBalance:  f.takerBalance.Ciphertext,
		RemainingGive: f.order.EncryptedGive,
		RemainingWant: f.order.EncryptedWant,
	})
}

func TestMatchFullFill(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newSwapFixture(t, "25")
	take, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 1000,
		WantAmount: 100,
		Rate:       f.secrets.Rate,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	require.Nil(err)
	assert.Equal(f.order.ID, take.OrderID)
	assert.True(take.VerifySignature(f.order.Digest()))

	quote, err := f.settle(take)
	require.Nil(err)
	assert.True(quote.Full)
	assert.Equal(uint64(1000), quote.TakerGive)
	assert.Equal(uint64(100), quote.TakerWant)
	assert.Equal(uint64(0), quote.RemainingGive)
	assert.Equal(uint64(0), quote.RemainingWant)
}

func TestMatchBelowMinFill(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newSwapFixture(t, "50")
	take, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 100,
		WantAmount: 10,
		Rate:       f.secrets.Rate,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	require.Nil(err)

	// 10 of 100 is below the 50% floor.
	_, err = f.settle(take)
	assert.ErrorIs(err, ErrVerificationRejected)
}

func TestMatchPartialFill(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newSwapFixture(t, "25")
	take, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 500,
		WantAmount: 50,
		Rate:       f.secrets.Rate,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	require.Nil(err)

	quote, err := f.settle(take)
	require.Nil(err)
	assert.False(quote.Full)
	assert.Equal(uint64(50), quote.RemainingGive)
	assert.Equal(uint64(500), quote.RemainingWant)
}

func TestMatchRejectsOffRateTake(t *testing.T) {
	assert := assert.New(t)

	f := newSwapFixture(t, "25")
	_, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 999,
		WantAmount: 100,
		Rate:       f.secrets.Rate,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	assert.ErrorIs(err, ErrProofConstruction)
}

func TestMatchRejectsWrongOpening(t *testing.T) {
	assert := assert.New(t)

	f := newSwapFixture(t, "25")
	forged := &RateOpening{ScaledRate: f.secrets.Rate.ScaledRate, Blinding: CryptoEntropy{}.RandomScalar()}
	_, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 1000,
		WantAmount: 100,
		Rate:       forged,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	assert.ErrorIs(err, ErrProofConstruction)
}

func TestMatchRejectsInsufficientTakerBalance(t *testing.T) {
	assert := assert.New(t)

	f := newSwapFixture(t, "25")
	entropy := CryptoEntropy{}
	poor := NewBalanceWitness(100, f.engine.Pub, entropy)
	_, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 1000,
		WantAmount: 100,
		Rate:       f.secrets.Rate,
		Balance:    poor,
		TakerKey:   f.takerKey,
	})
	assert.ErrorIs(err, ErrInsufficientBalance)
}

func TestMatchRejectsExpiredOrder(t *testing.T) {
	assert := assert.New(t)

	f := newSwapFixture(t, "25")
	f.order.ExpiresAt = time.Now().Add(-time.Minute)
	_, _, err := f.engine.BuildTake(f.order, TakeParams{
		GiveAmount: 1000,
		WantAmount: 100,
		Rate:       f.secrets.Rate,
		Balance:    f.takerBalance,
		TakerKey:   f.takerKey,
	})
	assert.ErrorIs(err, ErrEncoding)
}
