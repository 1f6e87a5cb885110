package guardian

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// IQuorumVerifier checks that a VAA carries signatures from a quorum of the current guardian
// set. Every failure mode wraps types.ErrBadQuorum.
type IQuorumVerifier interface {
	Verify(ctx context.Context, v *vaa.VAA) error
}

// GuardianSetVerifier verifies against a single, static guardian set.
type GuardianSetVerifier struct {
	index     uint32
	guardians []common.Address
}

func NewGuardianSetVerifier(index uint32, guardians []common.Address) (*GuardianSetVerifier, error) {
	if len(guardians) == 0 {
		return nil, fmt.Errorf("guardian set cannot be empty")
	}
	if len(guardians) > 255 {
		return nil, fmt.Errorf("guardian set too large: %d", len(guardians))
	}
	return &GuardianSetVerifier{
		index:     index,
		guardians: append([]common.Address{}, guardians...),
	}, nil
}

func (g *GuardianSetVerifier) Index() uint32 {
	return g.index
}

func (g *GuardianSetVerifier) Guardians() []common.Address {
	return append([]common.Address{}, g.guardians...)
}

// Quorum is the minimum number of valid signatures: floor(2n/3)+1.
func (g *GuardianSetVerifier) Quorum() int {
	return vaa.CalculateQuorum(len(g.guardians))
}

// Verify checks the guardian set index, then leaves quorum and signature checks to the SDK:
// indices strictly increasing and in range, each signature recovering to its guardian.
func (g *GuardianSetVerifier) Verify(ctx context.Context, v *vaa.VAA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%w: no vaa", types.ErrBadQuorum)
	}
	if v.GuardianSetIndex != g.index {
		return fmt.Errorf("%w: guardian set %d is not current (%d)", types.ErrBadQuorum, v.GuardianSetIndex, g.index)
	}
	for _, sig := range v.Signatures {
		if sig == nil {
			return fmt.Errorf("%w: nil signature", types.ErrBadQuorum)
		}
	}
	if err := v.Verify(g.guardians); err != nil {
		return fmt.Errorf("%w: %v", types.ErrBadQuorum, err)
	}
	return nil
}
