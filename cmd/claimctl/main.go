package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"ClaimChain/client"
)

// options holds the global flags.
type options struct {
	node    string        // node is the HTTP address of the node
	keyPath string        // keyPath is the wallet key file
	wait    time.Duration // wait is how long to wait for receipts (0 = don't wait)
	raw     bool          // raw claims the file bytes instead of their multihash
}

func main() {
	opts := &options{}

	flag.StringVar(&opts.node, "node", "127.0.0.1:8080", "Node HTTP address")
	flag.StringVar(&opts.keyPath, "key", "wallet.key", "Ed25519 wallet key path (generates new if missing)")
	flag.DurationVar(&opts.wait, "wait", 10*time.Second, "Time to wait for a receipt (0 to return immediately)")
	flag.BoolVar(&opts.raw, "raw", false, "Claim the file bytes instead of their sha2-256 multihash")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(opts, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: claimctl [flags] <command> [args]

Commands:
  cid <file>                    print the CID and claim bytes of a file
  create <file>                 claim a file
  revoke <file>                 revoke a claim you own
  transfer <file> <account>     give a claim you own to another account
  get <file>                    show the owner of a claim
  account                       print the wallet account
  status                        show node status
  events <height>               list the events of a block
  snapshot <out>                download a compressed snapshot

Flags:
`)
	flag.PrintDefaults()
}

// run dispatches a command.
func run(opts *options, cmd string, args []string) error {
	switch cmd {
	case "cid":
		return runCID(args)
	case "account":
		w, err := loadWallet(opts.keyPath)
		if err != nil {
			return err
		}
		fmt.Println(w.Account())
		return nil
	}

	cli, err := client.NewClient(opts.node)
	if err != nil {
		return err
	}

	switch cmd {
	case "create", "revoke", "transfer":
		return runCall(opts, cli, cmd, args)
	case "get":
		return runGet(opts, cli, args)
	case "status":
		return runStatus(cli)
	case "events":
		return runEvents(cli, args)
	case "snapshot":
		return runSnapshot(cli, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// runCID prints the CID of a file and the bytes that would be claimed.
func runCID(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cid <file>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	id, err := client.CID(data)
	if err != nil {
		return err
	}

	fmt.Printf("cid:   %s\n", id)
	fmt.Printf("claim: %s\n", hex.EncodeToString(id.Hash()))

	return nil
}

// runCall submits a create, revoke or transfer call.
func runCall(opts *options, cli *client.Client, cmd string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <file>", cmd)
	}

	w, err := loadWallet(opts.keyPath)
	if err != nil {
		return err
	}

	content, err := claimBytes(args[0], opts.raw)
	if err != nil {
		return err
	}

	var hash string

	switch cmd {
	case "create":
		hash, err = w.CreateClaim(cli, content)
	case "revoke":
		hash, err = w.RevokeClaim(cli, content)
	case "transfer":
		if len(args) != 2 {
			return fmt.Errorf("usage: transfer <file> <account>")
		}

		dest, perr := client.ParseAccount(args[1])
		if perr != nil {
			return perr
		}

		hash, err = w.TransferClaim(cli, content, dest)
	}

	if err != nil {
		return err
	}

	fmt.Printf("tx: %s\n", hash)

	if opts.wait == 0 {
		return nil
	}

	r, err := cli.WaitReceipt(hash, opts.wait)
	if err != nil {
		return err
	}

	if !r.Success {
		return fmt.Errorf("rejected at height %d: %s", r.Height, r.ErrorCode)
	}

	fmt.Printf("included at height %d\n", r.Height)

	return nil
}

// runGet prints the owner of a claim.
func runGet(opts *options, cli *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <file>")
	}

	content, err := claimBytes(args[0], opts.raw)
	if err != nil {
		return err
	}

	info, err := cli.GetClaim(content)
	if err != nil {
		return err
	}

	fmt.Printf("owner:     %s\n", info.Owner)
	fmt.Printf("timestamp: %d\n", info.Timestamp)

	return nil
}

// runStatus prints the node status.
func runStatus(cli *client.Client) error {
	s, err := cli.Status()
	if err != nil {
		return err
	}

	fmt.Printf("height:           %d\n", s.Height)
	fmt.Printf("pending:          %d\n", s.Pending)
	fmt.Printf("claims:           %d\n", s.Claims)
	fmt.Printf("max claim length: %d\n", s.MaxClaimLength)

	return nil
}

// runEvents prints the events of a block.
func runEvents(cli *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: events <height>")
	}

	height, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid height %q", args[0])
	}

	events, err := cli.Events(height)
	if err != nil {
		return err
	}

	for _, e := range events {
		switch e.Kind {
		case "ClaimTransfered":
			fmt.Printf("%d.%d %s %x from %s\n", e.Height, e.Index, e.Kind, e.Claim, e.PreviousOwner)
		default:
			fmt.Printf("%d.%d %s %x by %s\n", e.Height, e.Index, e.Kind, e.Claim, e.Account)
		}
	}

	return nil
}

// runSnapshot writes the node snapshot to a file.
func runSnapshot(cli *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: snapshot <out>")
	}

	data, err := cli.Snapshot()
	if err != nil {
		return err
	}

	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("write snapshot:\n%w", err)
	}

	fmt.Printf("wrote %d bytes to %s\n", len(data), args[0])

	return nil
}

// claimBytes returns the bytes claimed for a file.
func claimBytes(path string, raw bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if raw {
		return data, nil
	}

	return client.Fingerprint(data)
}

// loadWallet loads the wallet key, creating it if missing.
func loadWallet(path string) (*client.Wallet, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate key:\n%w", err)
		}

		if err := os.WriteFile(path, priv, 0600); err != nil {
			return nil, fmt.Errorf("save key to %s:\n%w", path, err)
		}

		return client.WalletFromKey(priv), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(data), ed25519.PrivateKeySize)
	}

	return client.WalletFromKey(ed25519.PrivateKey(data)), nil
}
