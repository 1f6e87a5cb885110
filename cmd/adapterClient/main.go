package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/client"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

const (
	envClientKey     = "ADAPTER_CLIENT_KEY"
	envClientKeyFile = "ADAPTER_CLIENT_KEY_FILE"
)

func main() {
	newAdminFlag := &cli.StringFlag{
		Name:     "new-admin",
		Usage:    "Proposed admin address (hex)",
		Required: true,
	}

	app := &cli.App{
		Name:  "adapter-client",
		Usage: "Client for the Wormhole guardian adapter API",
		Description: `A client for administering a guardian adapter and driving messages through it.

This client can:
- Initialize the adapter and move admin authority between accounts
- Register and inspect trusted peers
- Pick up outbound endpoint messages and submit guardian-signed inbound messages`,
		Version: "0.0.1",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Adapter API base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"ADAPTER_URL"},
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "Private key (hex) that signs state-changing requests; its address is the caller",
				EnvVars: []string{envClientKey},
			},
			&cli.StringFlag{
				Name:    "key-file",
				Usage:   "File holding the signing key (hex)",
				EnvVars: []string{envClientKeyFile},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "initialize",
				Usage: "Create the adapter configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin", Usage: "Initial admin (hex)", Required: true},
					&cli.StringFlag{Name: "endpoint", Usage: "Endpoint identity (hex)", Required: true},
					&cli.StringFlag{Name: "bridge-program", Usage: "Core bridge program (hex)", Required: true},
					&cli.StringFlag{
						Name:  "finality",
						Usage: fmt.Sprintf("Publication finality (%s or %s)", config.FinalityConfirmed, config.FinalityFinalized),
						Value: string(config.FinalityFinalized),
					},
				},
				Action: initializeCommand,
			},
			{
				Name:   "transfer-admin",
				Usage:  "Propose a new admin; it takes effect once claimed",
				Flags:  []cli.Flag{newAdminFlag},
				Action: transferAdminCommand,
			},
			{
				Name:   "claim-admin",
				Usage:  "Complete or cancel a pending admin transfer",
				Action: claimAdminCommand,
			},
			{
				Name:   "update-admin",
				Usage:  "Replace the admin in a single step",
				Flags:  []cli.Flag{newAdminFlag},
				Action: updateAdminCommand,
			},
			{
				Name:   "discard-admin",
				Usage:  "Permanently give up admin authority",
				Action: discardAdminCommand,
			},
			{
				Name:  "set-peer",
				Usage: "Register the trusted peer for a remote chain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "chain", Usage: "Remote chain, by id or name", Required: true},
					&cli.StringFlag{Name: "contract", Usage: "Peer contract address (hex)", Required: true},
				},
				Action: setPeerCommand,
			},
			{
				Name:  "get-peer",
				Usage: "Show the peer registered for a chain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "chain", Usage: "Remote chain, by id or name", Required: true},
				},
				Action: getPeerCommand,
			},
			{
				Name:   "list-peers",
				Usage:  "List every registered peer",
				Action: listPeersCommand,
			},
			{
				Name:   "get-config",
				Usage:  "Show the adapter configuration",
				Action: getConfigCommand,
			},
			{
				Name:   "quote",
				Usage:  "Show the current delivery price",
				Action: quoteCommand,
			},
			{
				Name:  "pick-up",
				Usage: "Relay an outbound endpoint message through the core bridge; the signer pays the fee",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ref", Usage: "Outbox message reference", Required: true},
				},
				Action: pickUpCommand,
			},
			{
				Name:  "recv",
				Usage: "Submit a guardian-signed message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vaa", Usage: "Serialized VAA (hex)"},
					&cli.StringFlag{Name: "body", Usage: "Observation body (hex), with detached signatures"},
					&cli.StringSliceFlag{Name: "signature", Usage: "Detached guardian signature (hex, 66 bytes)"},
					&cli.UintFlag{Name: "guardian-set-index", Usage: "Guardian set the detached signatures belong to"},
					&cli.StringFlag{Name: "digest", Usage: "Digest the signatures cover (hex); must match the body"},
				},
				Action: recvCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func createClient(c *cli.Context) *client.AdapterClient {
	return client.NewAdapterClient(c.String("url"), nil)
}

// createSigningClient loads the key from --key or --key-file. The key is never printed.
func createSigningClient(c *cli.Context) (*client.AdapterClient, error) {
	l := zap.NewNop()
	var (
		signer *inMemoryTransportSigner.InMemoryTransportSigner
		err    error
	)
	switch {
	case c.String("key-file") != "":
		signer, err = inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromFile(c.String("key-file"), l)
	case c.String("key") != "":
		signer, err = inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(c.String("key"), l)
	default:
		return nil, fmt.Errorf("--key or --key-file is required to sign %s", c.Command.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	return client.NewAdapterClient(c.String("url"), signer), nil
}

func address(c *cli.Context, flag string) (types.UniversalAddress, error) {
	a, err := types.UniversalAddressFromHex(c.String(flag))
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return a, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func initializeCommand(c *cli.Context) error {
	admin, err := address(c, "admin")
	if err != nil {
		return err
	}
	endpoint, err := address(c, "endpoint")
	if err != nil {
		return err
	}
	bridge, err := address(c, "bridge-program")
	if err != nil {
		return err
	}
	finality, err := config.ParseFinality(c.String("finality"))
	if err != nil {
		return err
	}

	cl, err := createSigningClient(c)
	if err != nil {
		return err
	}
	resp, err := cl.Initialize(c.Context, types.InitializeRequest{
		Admin:         admin,
		Endpoint:      endpoint,
		BridgeProgram: bridge,
		Finality:      finality,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	fmt.Printf("✅ Adapter initialized, emitter %s\n", resp.EmitterAddress.Hex())
	return printJSON(resp)
}

type adminCall func(ctx context.Context, cl *client.AdapterClient, newAdmin types.UniversalAddress) (*types.ConfigResponse, error)

func runAdminCommand(c *cli.Context, needsNewAdmin bool, call adminCall) error {
	var newAdmin types.UniversalAddress
	if needsNewAdmin {
		var err error
		if newAdmin, err = address(c, "new-admin"); err != nil {
			return err
		}
	}
	cl, err := createSigningClient(c)
	if err != nil {
		return err
	}
	resp, err := call(c.Context, cl, newAdmin)
	if err != nil {
		return fmt.Errorf("%s failed: %w", c.Command.Name, err)
	}
	return printJSON(resp.Config)
}

func transferAdminCommand(c *cli.Context) error {
	return runAdminCommand(c, true, func(ctx context.Context, cl *client.AdapterClient, newAdmin types.UniversalAddress) (*types.ConfigResponse, error) {
		return cl.TransferAdmin(ctx, newAdmin)
	})
}

func claimAdminCommand(c *cli.Context) error {
	return runAdminCommand(c, false, func(ctx context.Context, cl *client.AdapterClient, _ types.UniversalAddress) (*types.ConfigResponse, error) {
		return cl.ClaimAdmin(ctx)
	})
}

func updateAdminCommand(c *cli.Context) error {
	return runAdminCommand(c, true, func(ctx context.Context, cl *client.AdapterClient, newAdmin types.UniversalAddress) (*types.ConfigResponse, error) {
		return cl.UpdateAdmin(ctx, newAdmin)
	})
}

func discardAdminCommand(c *cli.Context) error {
	return runAdminCommand(c, false, func(ctx context.Context, cl *client.AdapterClient, _ types.UniversalAddress) (*types.ConfigResponse, error) {
		return cl.DiscardAdmin(ctx)
	})
}

func setPeerCommand(c *cli.Context) error {
	chain, err := config.ParseChainID(c.String("chain"))
	if err != nil {
		return err
	}
	contract, err := address(c, "contract")
	if err != nil {
		return err
	}
	cl, err := createSigningClient(c)
	if err != nil {
		return err
	}

	peer, err := cl.SetPeer(c.Context, uint16(chain), contract)
	if err != nil {
		return fmt.Errorf("failed to set peer: %w", err)
	}
	fmt.Printf("✅ Peer registered for %s\n", chain.String())
	return printJSON(peer)
}

func getPeerCommand(c *cli.Context) error {
	peer, err := createClient(c).GetPeer(c.Context, strings.TrimSpace(c.String("chain")))
	if err != nil {
		return fmt.Errorf("failed to get peer: %w", err)
	}
	return printJSON(peer)
}

func listPeersCommand(c *cli.Context) error {
	peers, err := createClient(c).ListPeers(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list peers: %w", err)
	}
	return printJSON(peers)
}

func getConfigCommand(c *cli.Context) error {
	resp, err := createClient(c).GetConfig(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	return printJSON(resp)
}

func quoteCommand(c *cli.Context) error {
	resp, err := createClient(c).Quote(c.Context)
	if err != nil {
		return fmt.Errorf("failed to quote: %w", err)
	}
	fmt.Println(resp.Fee)
	return nil
}

func pickUpCommand(c *cli.Context) error {
	cl, err := createSigningClient(c)
	if err != nil {
		return err
	}
	resp, err := cl.PickUpMessage(c.Context, c.String("ref"))
	if err != nil {
		return fmt.Errorf("failed to pick up message: %w", err)
	}
	fmt.Printf("✅ Published with transport sequence %d (fee %s)\n", resp.TransportSequence, resp.Fee)
	return nil
}

func recvCommand(c *cli.Context) error {
	req := types.RecvRequest{
		VAA:              c.String("vaa"),
		Body:             c.String("body"),
		Signatures:       c.StringSlice("signature"),
		Digest:           c.String("digest"),
		GuardianSetIndex: uint32(c.Uint("guardian-set-index")),
	}
	if (req.VAA == "") == (req.Body == "") {
		return fmt.Errorf("exactly one of --vaa or --body is required")
	}

	resp, err := createClient(c).RecvMessage(c.Context, req)
	if err != nil {
		return fmt.Errorf("failed to receive message: %w", err)
	}
	fmt.Printf("✅ Attested message from chain %d, sequence %d\n", resp.SrcChain, resp.Sequence)
	return nil
}
