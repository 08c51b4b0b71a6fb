package payaddr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generated is one payment address produced for an invoice.
type Generated struct {
	Address string
	Type    string // transparent or shielded
}

// Generator is the address-generation collaborator. The real implementation
// lives with the blockchain gateway; the engine only needs an address string
// to attach to an invoice.
type Generator interface {
	GenerateAddress(ctx context.Context, method, network string) (*Generated, error)
}

// StaticGenerator derives unique placeholder addresses locally. Used in
// development and tests where no gateway is available.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

func (g *StaticGenerator) GenerateAddress(_ context.Context, method, network string) (*Generated, error) {
	if network == "" {
		network = "mainnet"
	}
	seed := strings.ReplaceAll(uuid.New().String(), "-", "")

	switch method {
	case "", "transparent":
		// t-addr shape: t1 prefix plus 33 payload characters.
		return &Generated{Address: "t1" + seed + seed[:1], Type: "transparent"}, nil
	case "shielded":
		// Sapling z-addr shape: zs1 prefix plus 75 payload characters.
		return &Generated{Address: "zs1" + seed + seed + seed[:11], Type: "shielded"}, nil
	default:
		return nil, fmt.Errorf("unknown address method %q for network %q", method, network)
	}
}
