package inMemoryTransportSigner

import (
	"fmt"
	"os"
	"strings"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

type InMemoryTransportSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    types.UniversalAddress
}

// NewECDSAInMemoryTransportSignerFromHex loads a hex encoded secp256k1 private key, with or
// without the 0x prefix.
func NewECDSAInMemoryTransportSignerFromHex(hexKey string, logger *zap.Logger) (*InMemoryTransportSigner, error) {
	hexKey = strings.TrimSpace(hexKey)
	if !strings.HasPrefix(hexKey, "0x") && !strings.HasPrefix(hexKey, "0X") {
		hexKey = "0x" + hexKey
	}
	keyBytes, err := hexutil.Decode(hexKey)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid hex")
	}
	return NewECDSAInMemoryTransportSigner(keyBytes, logger)
}

// NewECDSAInMemoryTransportSignerFromFile reads a hex encoded private key from path.
func NewECDSAInMemoryTransportSignerFromFile(path string, logger *zap.Logger) (*InMemoryTransportSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return NewECDSAInMemoryTransportSignerFromHex(string(data), logger)
}

func NewECDSAInMemoryTransportSigner(
	privateKey []byte,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	key, err := ecdsa.NewPrivateKeyFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}

	addr, err := key.DeriveAddress()
	if err != nil {
		return nil, fmt.Errorf("error deriving address: %w", err)
	}

	its := &InMemoryTransportSigner{
		logger:     logger,
		privateKey: key,
		address:    types.UniversalAddressFromEVM(addr),
	}
	logger.Sugar().Debugw("Loaded signing key", "address", its.address.Hex())
	return its, nil
}

func (its *InMemoryTransportSigner) Address() types.UniversalAddress {
	return its.address
}

// data is the raw message bytes to sign
func (its *InMemoryTransportSigner) SignMessage(data []byte) ([]byte, error) {
	hashedData := crypto.Keccak256Hash(data)
	sig, err := its.privateKey.Sign(hashedData[:])
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

func (its *InMemoryTransportSigner) CreateAuthenticatedMessage(data []byte) (*transportSigner.SignedMessage, error) {
	hash := crypto.Keccak256Hash(data)

	sigBytes, err := its.SignMessage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authenticated message: %w", err)
	}

	return &transportSigner.SignedMessage{
		Payload:   data,
		Signature: sigBytes,
		Hash:      hash,
	}, nil
}
