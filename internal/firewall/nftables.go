package firewall

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	NftablesName = "nftables"

	nftBinary = "nft"
	nftFamily = "inet"
	nftTable  = "canaryports"
	nftChain  = "input"
	nftSetV4  = "block_v4"
	nftSetV6  = "block_v6"
)

type nftables struct {
	runner Runner

	mu    sync.Mutex
	ready bool
}

// NewNftables returns a Backend keeping blocked addresses in two nftables sets
// of a dedicated inet table, dropped by a single input hook chain.
func NewNftables(runner Runner) Backend {
	return &nftables{runner: runner}
}

func (n *nftables) Name() string { return NftablesName }

func (n *nftables) BlockIPv4(ctx context.Context, addr string) error {
	return n.addElement(ctx, nftSetV4, addr)
}

func (n *nftables) BlockIPv6(ctx context.Context, addr string) error {
	return n.addElement(ctx, nftSetV6, addr)
}

func (n *nftables) UnblockIPv4(ctx context.Context, addr string) error {
	return n.deleteElement(ctx, nftSetV4, addr)
}

func (n *nftables) UnblockIPv6(ctx context.Context, addr string) error {
	return n.deleteElement(ctx, nftSetV6, addr)
}

func (n *nftables) addElement(ctx context.Context, set, addr string) error {
	if err := n.ensureBase(ctx); err != nil {
		return err
	}
	if _, err := n.nft(ctx, "add", "element", nftFamily, nftTable, set, "{ "+addr+" }"); err != nil {
		return errors.Wrapf(err, "adding %s to nft set %s", addr, set)
	}
	return nil
}

func (n *nftables) deleteElement(ctx context.Context, set, addr string) error {
	if err := n.ensureBase(ctx); err != nil {
		return err
	}
	out, err := n.nft(ctx, "delete", "element", nftFamily, nftTable, set, "{ "+addr+" }")
	if err != nil {
		if strings.Contains(string(out), "No such file or directory") {
			return nil
		}
		return errors.Wrapf(err, "deleting %s from nft set %s", addr, set)
	}
	return nil
}

// ensureBase creates the table, sets, chain and drop rules once per process.
// A failed attempt is retried on the next call.
func (n *nftables) ensureBase(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ready {
		return nil
	}

	steps := [][]string{
		{"add", "table", nftFamily, nftTable},
		{"add", "set", nftFamily, nftTable, nftSetV4, "{ type ipv4_addr; }"},
		{"add", "set", nftFamily, nftTable, nftSetV6, "{ type ipv6_addr; }"},
		{"add", "chain", nftFamily, nftTable, nftChain, "{ type filter hook input priority -10; policy accept; }"},
	}
	for _, args := range steps {
		if _, err := n.nft(ctx, args...); err != nil {
			return errors.Wrap(err, "preparing nftables base")
		}
	}

	// add rule is not idempotent, look before adding
	out, err := n.nft(ctx, "list", "chain", nftFamily, nftTable, nftChain)
	if err != nil {
		return errors.Wrap(err, "listing nftables chain")
	}
	rules := []struct {
		proto, set string
	}{
		{proto: "ip", set: nftSetV4},
		{proto: "ip6", set: nftSetV6},
	}
	for _, r := range rules {
		if strings.Contains(string(out), "@"+r.set) {
			continue
		}
		if _, err := n.nft(ctx, "add", "rule", nftFamily, nftTable, nftChain, r.proto, "saddr", "@"+r.set, "drop"); err != nil {
			return errors.Wrap(err, "adding nftables drop rule")
		}
	}

	n.ready = true
	return nil
}

func (n *nftables) nft(ctx context.Context, args ...string) ([]byte, error) {
	return n.runner.Run(ctx, nftBinary, args...)
}
