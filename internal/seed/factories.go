// Package seed provides helpers to create demo ledger data for development
// and testing. All writes go through the ledger service so seeded state is
// indistinguishable from organically committed state.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"postchain/internal/ledger"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory generates plausible principals and content references.
type Factory struct {
	rng *rand.Rand
}

// NewFactory creates a Factory. A zero seed derives one from the clock.
func NewFactory(seedVal int64) *Factory {
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	gofakeit.Seed(seedVal)
	return &Factory{rng: rand.New(rand.NewSource(seedVal))}
}

// Principal fabricates an opaque caller identity shaped like an account
// address: a 40-hex-char string with an 0x prefix.
func (f *Factory) Principal() ledger.Principal {
	// 40 hex chars, like an account address.
	return ledger.Principal("0x" + gofakeit.HexUint256()[2:42])
}

// Username fabricates a human-readable principal for readable demo data.
func (f *Factory) Username() ledger.Principal {
	return ledger.Principal(gofakeit.Username())
}

// ContentRef fabricates an IPFS-style content reference. Refs are opaque to
// the ledger; the CID-ish shape just makes demo data look right.
func (f *Factory) ContentRef() string {
	return fmt.Sprintf("ipfs://Qm%s", gofakeit.LetterN(44))
}

// Pick returns a random element of principals.
func (f *Factory) Pick(principals []ledger.Principal) ledger.Principal {
	return principals[f.rng.Intn(len(principals))]
}

// Chance returns true with probability p in [0,1].
func (f *Factory) Chance(p float64) bool {
	return f.rng.Float64() < p
}
