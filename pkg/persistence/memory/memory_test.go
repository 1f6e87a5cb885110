package memory

import (
	"testing"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence/persistenceTest"
	"go.uber.org/zap"
)

func TestMemoryPersistence(t *testing.T) {
	persistenceTest.RunSuite(t, func(t *testing.T) persistence.IAdapterPersistence {
		return NewMemoryPersistence(zap.NewNop())
	})
}
