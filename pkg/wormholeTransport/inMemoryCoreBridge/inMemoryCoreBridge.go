package inMemoryCoreBridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	pkgerrors "github.com/pkg/errors"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport"
)

var (
	ErrInvalidEmitterSignature = errors.New("emitter signature does not match emitter address")
	ErrMessageAccountInUse     = errors.New("message account already used")
	ErrFeeNotPaid              = errors.New("message fee was not paid to the fee collector")
	ErrInvalidConsistencyLevel = errors.New("unsupported consistency level")
)

// PublishedMessage is a message accepted by the bridge, plus its signed VAA when a devnet
// guardian set is attached.
type PublishedMessage struct {
	Emitter          types.UniversalAddress
	Sequence         uint64
	Nonce            uint32
	ConsistencyLevel uint8
	Payload          []byte
	Envelope         *guardian.SignedEnvelope
}

type Options struct {
	// Address is the bridge program address reported to callers.
	Address      types.UniversalAddress
	ChainID      vaa.ChainID
	MessageFee   *uint256.Int
	FeeCollector types.UniversalAddress
	// Ledger is where the fee collector's balance is checked. Required when MessageFee > 0.
	Ledger *ledger.InMemoryLedger
	// Guardians, when set, observe every publication and sign it into a VAA.
	Guardians *guardian.DevnetGuardianSet
}

// InMemoryCoreBridge mimics the core bridge's post-message contract in process.
type InMemoryCoreBridge struct {
	opts   Options
	logger *zap.Logger

	mu              sync.Mutex
	sequences       map[types.UniversalAddress]uint64
	messageAccounts map[common.Hash]bool
	collected       *uint256.Int
	published       []*PublishedMessage
	failNext        error
}

func NewInMemoryCoreBridge(opts Options, logger *zap.Logger) (*InMemoryCoreBridge, error) {
	if opts.MessageFee == nil {
		opts.MessageFee = new(uint256.Int)
	}
	if !opts.MessageFee.IsZero() && opts.Ledger == nil {
		return nil, errors.New("a ledger is required when the message fee is nonzero")
	}
	if opts.ChainID == vaa.ChainIDUnset {
		return nil, errors.New("chain id is required")
	}

	collected := new(uint256.Int)
	if opts.Ledger != nil {
		collected = opts.Ledger.Balance(opts.FeeCollector)
	}
	return &InMemoryCoreBridge{
		opts:            opts,
		logger:          logger,
		sequences:       make(map[types.UniversalAddress]uint64),
		messageAccounts: make(map[common.Hash]bool),
		collected:       collected,
	}, nil
}

func (b *InMemoryCoreBridge) MessageFee(ctx context.Context) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(b.opts.MessageFee), nil
}

func (b *InMemoryCoreBridge) Address() types.UniversalAddress {
	return b.opts.Address
}

func (b *InMemoryCoreBridge) FeeCollector() types.UniversalAddress {
	return b.opts.FeeCollector
}

// FailNext makes the next PostMessage fail with err before any state changes.
func (b *InMemoryCoreBridge) FailNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

func (b *InMemoryCoreBridge) PostMessage(ctx context.Context, args *wormholeTransport.PostMessageArgs) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return 0, pkgerrors.Wrap(err, "post message")
	}
	if args.ConsistencyLevel != config.ConsistencyLevelConfirmed && args.ConsistencyLevel != config.ConsistencyLevelFinalized {
		return 0, pkgerrors.Wrapf(ErrInvalidConsistencyLevel, "level %d", args.ConsistencyLevel)
	}
	if b.messageAccounts[args.MessageAccount] {
		return 0, pkgerrors.Wrapf(ErrMessageAccountInUse, "account %s", args.MessageAccount.Hex())
	}
	if err := verifyEmitter(args); err != nil {
		return 0, err
	}

	// The fee must already sit in the collector: the bridge only checks the balance delta.
	if !b.opts.MessageFee.IsZero() {
		balance := b.opts.Ledger.Balance(b.opts.FeeCollector)
		expected := new(uint256.Int).Add(b.collected, b.opts.MessageFee)
		if balance.Lt(expected) {
			return 0, pkgerrors.Wrapf(ErrFeeNotPaid, "collector holds %s, expected %s", balance.Dec(), expected.Dec())
		}
		b.collected = balance
	}

	seq := b.sequences[args.EmitterAddress]
	msg := &PublishedMessage{
		Emitter:          args.EmitterAddress,
		Sequence:         seq,
		Nonce:            args.Nonce,
		ConsistencyLevel: args.ConsistencyLevel,
		Payload:          append([]byte{}, args.Payload...),
	}
	if b.opts.Guardians != nil {
		env, err := b.opts.Guardians.Observe(&vaa.VAA{
			Timestamp:        time.Now().Truncate(time.Second),
			Nonce:            args.Nonce,
			EmitterChain:     b.opts.ChainID,
			EmitterAddress:   args.EmitterAddress.ToVAAAddress(),
			Sequence:         seq,
			ConsistencyLevel: args.ConsistencyLevel,
			Payload:          msg.Payload,
		})
		if err != nil {
			return 0, pkgerrors.Wrap(err, "failed to observe message")
		}
		msg.Envelope = env
	}

	b.sequences[args.EmitterAddress] = seq + 1
	b.messageAccounts[args.MessageAccount] = true
	b.published = append(b.published, msg)

	b.logger.Sugar().Infow("Published message",
		"emitter", args.EmitterAddress.Hex(),
		"sequence", seq,
		"consistencyLevel", args.ConsistencyLevel,
	)
	return seq, nil
}

// Published returns every accepted message, oldest first.
func (b *InMemoryCoreBridge) Published() []*PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*PublishedMessage{}, b.published...)
}

func verifyEmitter(args *wormholeTransport.PostMessageArgs) error {
	sig, err := ecdsa.NewSignatureFromBytes(args.Signature)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidEmitterSignature, err.Error())
	}
	hash := crypto.Keccak256Hash(args.Payload)
	emitter := common.BytesToAddress(args.EmitterAddress.Bytes()[12:])
	valid, err := sig.VerifyWithAddress(hash[:], emitter)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidEmitterSignature, err.Error())
	}
	if !valid {
		return pkgerrors.WithStack(ErrInvalidEmitterSignature)
	}
	return nil
}
