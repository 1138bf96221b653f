package funds

import (
	"math/big"
	"testing"
	"time"

	"github.com/SirZenith/taskmon/balance"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func TestRenderExact(t *testing.T) {
	snapshot := balance.Snapshot{
		Address:                ethcommon.HexToAddress("0xaa"),
		PolicyID:               7,
		Native:                 ether(3),
		ShMonad:                ether(2),
		Bonded:                 ether(1),
		PolicyBonded:           ether(1),
		Unbonding:              ether(4),
		UnbondingCompleteBlock: 1_010,
		CurrentBlock:           1_000,
		FetchedAt:              time.Now(),
	}

	out := Render(snapshot, formatExact)
	assert.Contains(t, out, snapshot.Address.Hex())
	assert.Contains(t, out, "3 MON")
	assert.Contains(t, out, "Bonded (policy 7)")
	assert.Contains(t, out, "4 shMON")
	assert.Contains(t, out, "10 blocks left (about 20s)")
	assert.Contains(t, out, "block 1,000")

	snapshot.CurrentBlock = 1_010
	assert.Contains(t, Render(snapshot, formatExact), "ready to claim")
}

func TestRenderNothingUnbonding(t *testing.T) {
	out := Render(balance.Snapshot{Unbonding: new(big.Int)}, formatExact)
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "0 MON")
}
