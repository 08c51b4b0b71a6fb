package payaddr

import (
	"context"
	"testing"
)

func TestStaticGenerator_Transparent(t *testing.T) {
	g := NewStaticGenerator()

	addr, err := g.GenerateAddress(context.Background(), "transparent", "mainnet")
	if err != nil {
		t.Fatalf("GenerateAddress failed: %v", err)
	}
	if addr.Type != "transparent" {
		t.Errorf("Expected transparent type, got %s", addr.Type)
	}
	if len(addr.Address) != 35 {
		t.Errorf("Expected 35-character t-addr, got %d: %s", len(addr.Address), addr.Address)
	}
	if addr.Address[:2] != "t1" {
		t.Errorf("Expected t1 prefix, got %s", addr.Address[:2])
	}
}

func TestStaticGenerator_Shielded(t *testing.T) {
	g := NewStaticGenerator()

	addr, err := g.GenerateAddress(context.Background(), "shielded", "mainnet")
	if err != nil {
		t.Fatalf("GenerateAddress failed: %v", err)
	}
	if addr.Type != "shielded" {
		t.Errorf("Expected shielded type, got %s", addr.Type)
	}
	if len(addr.Address) != 78 {
		t.Errorf("Expected 78-character z-addr, got %d: %s", len(addr.Address), addr.Address)
	}
	if addr.Address[:3] != "zs1" {
		t.Errorf("Expected zs1 prefix, got %s", addr.Address[:3])
	}
}

func TestStaticGenerator_Unique(t *testing.T) {
	g := NewStaticGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		addr, err := g.GenerateAddress(context.Background(), "", "")
		if err != nil {
			t.Fatalf("GenerateAddress failed: %v", err)
		}
		if seen[addr.Address] {
			t.Fatalf("Duplicate address generated: %s", addr.Address)
		}
		seen[addr.Address] = true
	}
}

func TestStaticGenerator_UnknownMethod(t *testing.T) {
	g := NewStaticGenerator()

	if _, err := g.GenerateAddress(context.Background(), "orchard", "mainnet"); err == nil {
		t.Error("Expected error for unknown method")
	}
}
