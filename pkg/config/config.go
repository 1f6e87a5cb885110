package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for adapter server configuration
const (
	EnvAdapterPort            = "ADAPTER_PORT"
	EnvAdapterMetricsPort     = "ADAPTER_METRICS_PORT"
	EnvAdapterChainID         = "ADAPTER_CHAIN_ID"
	EnvAdapterPersistenceType = "ADAPTER_PERSISTENCE_TYPE"
	EnvAdapterDataPath        = "ADAPTER_DATA_PATH"
	EnvAdapterRedisAddress    = "ADAPTER_REDIS_ADDRESS"
	EnvAdapterRedisPassword   = "ADAPTER_REDIS_PASSWORD"
	EnvAdapterRedisDB         = "ADAPTER_REDIS_DB"
	EnvAdapterRedisKeyPrefix  = "ADAPTER_REDIS_KEY_PREFIX"
	EnvAdapterEventChannel    = "ADAPTER_EVENT_CHANNEL"
	EnvAdapterGuardians       = "ADAPTER_GUARDIANS"
	EnvAdapterGuardianKeys    = "ADAPTER_DEVNET_GUARDIAN_KEYS"
	EnvAdapterEmitterKey      = "ADAPTER_EMITTER_KEY"
	EnvAdapterEmitterKeyFile  = "ADAPTER_EMITTER_KEY_FILE"
	EnvAdapterBridgeAddress   = "ADAPTER_BRIDGE_ADDRESS"
	EnvAdapterMessageFee      = "ADAPTER_MESSAGE_FEE"
	EnvAdapterVerbose         = "ADAPTER_VERBOSE"
)

type Finality string

func (f Finality) String() string {
	return string(f)
}

// Uint8 returns the Wormhole consistency level recorded in published observations.
func (f Finality) Uint8() (uint8, error) {
	return ConvertFinalityToConsistencyLevel(f)
}

const (
	FinalityConfirmed Finality = "confirmed"
	FinalityFinalized Finality = "finalized"
)

const (
	ConsistencyLevelConfirmed uint8 = 1
	ConsistencyLevelFinalized uint8 = 32
)

func ConvertFinalityToConsistencyLevel(f Finality) (uint8, error) {
	switch f {
	case FinalityConfirmed:
		return ConsistencyLevelConfirmed, nil
	case FinalityFinalized:
		return ConsistencyLevelFinalized, nil
	default:
		return 0, fmt.Errorf("unsupported finality: %s", f)
	}
}

func ConvertConsistencyLevelToFinality(level uint8) (Finality, error) {
	switch level {
	case ConsistencyLevelConfirmed:
		return FinalityConfirmed, nil
	case ConsistencyLevelFinalized:
		return FinalityFinalized, nil
	default:
		return "", fmt.Errorf("unsupported consistency level: %d", level)
	}
}

func ParseFinality(s string) (Finality, error) {
	f := Finality(strings.ToLower(strings.TrimSpace(s)))
	if _, err := f.Uint8(); err != nil {
		return "", err
	}
	return f, nil
}

type PersistenceType string

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// DefaultChainID is the Wormhole chain id this adapter attests for unless configured otherwise.
const DefaultChainID = vaa.ChainIDSolana

// ParseChainID accepts either a numeric Wormhole chain id or a chain name such as "ethereum".
func ParseChainID(s string) (vaa.ChainID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		if n == 0 {
			return vaa.ChainIDUnset, fmt.Errorf("chain id cannot be zero")
		}
		return vaa.ChainID(n), nil
	}
	id, err := vaa.ChainIDFromString(s)
	if err != nil {
		return vaa.ChainIDUnset, fmt.Errorf("unknown chain %q: %w", s, err)
	}
	return id, nil
}

type RedisPersistenceConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"keyPrefix"`
}

type PersistenceConfig struct {
	Type     PersistenceType         `json:"type"`
	DataPath string                  `json:"dataPath"`
	Redis    *RedisPersistenceConfig `json:"redis,omitempty"`
}

// AdapterServerConfig represents the complete configuration for an adapter server
type AdapterServerConfig struct {
	Port        int `json:"port"`
	MetricsPort int `json:"metrics_port"`

	// ChainID is the local Wormhole chain id; inbound messages must target it
	ChainID vaa.ChainID `json:"chain_id"`

	Persistence PersistenceConfig `json:"persistence"`

	// Guardians is the current guardian set, ordered by guardian index
	Guardians []string `json:"guardians"`
	// DevnetGuardianKeys lets the in-process core bridge sign observations. Never set in production.
	DevnetGuardianKeys []string `json:"devnet_guardian_keys,omitempty"`

	// EmitterKey is the hex secp256k1 key behind the emitter identity. Exactly one of EmitterKey
	// and EmitterKeyFile is set; the key itself is never serialized.
	EmitterKey     string `json:"-"`
	EmitterKeyFile string `json:"emitter_key_file,omitempty"`

	// BridgeAddress is the core bridge program the in-process transport reports
	BridgeAddress string `json:"bridge_address"`

	// MessageFee is the core bridge publication fee, decimal
	MessageFee string `json:"message_fee"`

	// EventChannel enables Redis pub/sub of adapter events when persistence is redis
	EventChannel string `json:"event_channel"`

	Debug bool `json:"debug"`
}

// Validate validates the adapter server configuration
func (c *AdapterServerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}
	if c.MetricsPort != 0 && (c.MetricsPort < 1 || c.MetricsPort > 65535 || c.MetricsPort == c.Port) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("metrics_port"), c.MetricsPort, "metrics port must be between 1-65535 and differ from port"))
	}
	if c.ChainID == vaa.ChainIDUnset {
		allErrors = append(allErrors, field.Required(field.NewPath("chain_id"), "chain_id is required"))
	}

	persistencePath := field.NewPath("persistence")
	switch c.Persistence.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if c.Persistence.DataPath == "" {
			allErrors = append(allErrors, field.Required(persistencePath.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if c.Persistence.Redis == nil || c.Persistence.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(persistencePath.Child("redis", "address"), "redis address is required for redis persistence"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(persistencePath.Child("type"), c.Persistence.Type,
			[]string{string(PersistenceTypeMemory), string(PersistenceTypeBadger), string(PersistenceTypeRedis)}))
	}

	if len(c.Guardians) == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("guardians"), "at least one guardian is required"))
	}
	for i, g := range c.Guardians {
		if !common.IsHexAddress(g) {
			allErrors = append(allErrors, field.Invalid(field.NewPath("guardians").Index(i), g, "must be a hex address"))
		}
	}
	if len(c.DevnetGuardianKeys) > 0 && len(c.DevnetGuardianKeys) != len(c.Guardians) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("devnet_guardian_keys"), len(c.DevnetGuardianKeys), "must have one key per guardian"))
	}

	switch {
	case c.EmitterKey == "" && c.EmitterKeyFile == "":
		allErrors = append(allErrors, field.Required(field.NewPath("emitter_key"), "emitter_key or emitter_key_file is required"))
	case c.EmitterKey != "" && c.EmitterKeyFile != "":
		// field.Forbidden does not echo a value, so the key stays out of the message.
		allErrors = append(allErrors, field.Forbidden(field.NewPath("emitter_key"), "set only one of emitter_key and emitter_key_file"))
	}

	if c.EventChannel != "" && c.Persistence.Type != PersistenceTypeRedis {
		allErrors = append(allErrors, field.Invalid(field.NewPath("event_channel"), c.EventChannel, "event publishing requires redis persistence"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// GetSupportedPersistenceTypesString returns supported persistence types for CLI help
func GetSupportedPersistenceTypesString() string {
	return fmt.Sprintf("%s, %s, %s", PersistenceTypeMemory, PersistenceTypeBadger, PersistenceTypeRedis)
}
