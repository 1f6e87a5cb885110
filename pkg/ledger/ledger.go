package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/holiman/uint256"
	pkgerrors "github.com/pkg/errors"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// ILedger moves native value between accounts. The relay path uses it to pay the core bridge's
// message fee and to refund it when publication fails.
type ILedger interface {
	Transfer(ctx context.Context, from, to types.UniversalAddress, amount *uint256.Int) error
}

type InMemoryLedger struct {
	mu       sync.Mutex
	balances map[types.UniversalAddress]*uint256.Int
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balances: make(map[types.UniversalAddress]*uint256.Int)}
}

// Credit mints amount into account.
func (l *InMemoryLedger) Credit(account types.UniversalAddress, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balanceLocked(account)
	b.Add(b, amount)
}

func (l *InMemoryLedger) Balance(account types.UniversalAddress) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(uint256.Int).Set(l.balanceLocked(account))
}

func (l *InMemoryLedger) Transfer(ctx context.Context, from, to types.UniversalAddress, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.balanceLocked(from)
	if src.Lt(amount) {
		return pkgerrors.Wrapf(ErrInsufficientFunds, "account %s has %s, needs %s", from.Hex(), src.Dec(), amount.Dec())
	}
	src.Sub(src, amount)
	dst := l.balanceLocked(to)
	dst.Add(dst, amount)
	return nil
}

func (l *InMemoryLedger) balanceLocked(account types.UniversalAddress) *uint256.Int {
	b, ok := l.balances[account]
	if !ok {
		b = new(uint256.Int)
		l.balances[account] = b
	}
	return b
}
