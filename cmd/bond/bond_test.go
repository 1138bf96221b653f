package bond

import (
	"math/big"
	"testing"

	"github.com/SirZenith/taskmon/chain"
	"github.com/stretchr/testify/assert"
)

func TestRenderUnbonding(t *testing.T) {
	out := RenderUnbonding(1, chain.UnbondingStatus{Amount: new(big.Int)})
	assert.Contains(t, out, "no pending unbonding")

	amount := big.NewInt(2_000_000_000_000_000_000)

	out = RenderUnbonding(3, chain.UnbondingStatus{Amount: amount, CompleteBlock: 150, CurrentBlock: 100})
	assert.Contains(t, out, "2 shMON")
	assert.Contains(t, out, "Waiting")
	assert.Contains(t, out, "50 blocks (about 1m40s)")

	out = RenderUnbonding(3, chain.UnbondingStatus{Amount: amount, CompleteBlock: 150, CurrentBlock: 150})
	assert.Contains(t, out, "Complete")
	assert.Contains(t, out, "ready to claim")
}
