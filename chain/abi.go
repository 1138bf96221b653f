package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Fragments of contract ABIs this program talks to. Only functions and events
// in use are listed.

const AddressHubABI = `[
	{"type":"function","name":"taskManager","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"shMonad","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

const ShMonadABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOfBonded","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOfUnbonding","stateMutability":"view","inputs":[{"name":"policyID","type":"uint64"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"unbondingCompleteBlock","stateMutability":"view","inputs":[{"name":"policyID","type":"uint64"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"redeem","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"name":"assets","type":"uint256"}]},
	{"type":"function","name":"depositAndBond","stateMutability":"payable","inputs":[{"name":"policyID","type":"uint64"},{"name":"bondRecipient","type":"address"},{"name":"amountToBond","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"unbond","stateMutability":"nonpayable","inputs":[{"name":"policyID","type":"uint64"},{"name":"amount","type":"uint256"},{"name":"newMinBalance","type":"uint256"}],"outputs":[{"name":"unbondBlock","type":"uint256"}]},
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[{"name":"policyID","type":"uint64"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// balanceOfBonded is overloaded on shMONAD, the per-policy variant lives in
// its own fragment so that both can be called by plain name.
const ShMonadPolicyBondedABI = `[
	{"type":"function","name":"balanceOfBonded","stateMutability":"view","inputs":[{"name":"policyID","type":"uint64"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const TaskManagerABI = `[
	{"type":"function","name":"POLICY_ID","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
	{"type":"function","name":"scheduleTask","stateMutability":"payable","inputs":[{"name":"implementation","type":"address"},{"name":"taskGasLimit","type":"uint256"},{"name":"targetBlock","type":"uint64"},{"name":"maxPayment","type":"uint256"},{"name":"taskCallData","type":"bytes"}],"outputs":[{"name":"scheduled","type":"bool"},{"name":"executionCost","type":"uint256"},{"name":"taskId","type":"bytes32"}]},
	{"type":"function","name":"executeTasks","stateMutability":"nonpayable","inputs":[{"name":"payoutAddress","type":"address"},{"name":"targetGasReserve","type":"uint256"}],"outputs":[{"name":"feesEarned","type":"uint256"}]},
	{"type":"function","name":"getTaskStatus","stateMutability":"view","inputs":[{"name":"taskId","type":"bytes32"}],"outputs":[{"name":"status","type":"uint8"},{"name":"scheduledBlock","type":"uint64"},{"name":"targetBlock","type":"uint64"},{"name":"owner","type":"address"},{"name":"feeEstimate","type":"uint256"}]},
	{"type":"function","name":"isTaskExecuted","stateMutability":"view","inputs":[{"name":"taskId","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"TaskScheduled","anonymous":false,"inputs":[{"name":"taskId","type":"bytes32","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"nextBlockToRun","type":"uint64","indexed":false}]}
]`

var (
	addressHubABI          = mustParseABI(AddressHubABI)
	shMonadABI             = mustParseABI(ShMonadABI)
	shMonadPolicyBondedABI = mustParseABI(ShMonadPolicyBondedABI)
	taskManagerABI         = mustParseABI(TaskManagerABI)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid contract ABI: " + err.Error())
	}
	return parsed
}

// ContractABI returns parsed ABI of named contract, one of "AddressHub",
// "shMONAD", "TaskManager".
func ContractABI(name string) (abi.ABI, bool) {
	switch name {
	case "AddressHub":
		return addressHubABI, true
	case "shMONAD":
		return shMonadABI, true
	case "TaskManager":
		return taskManagerABI, true
	default:
		return abi.ABI{}, false
	}
}

// ContractNames lists names accepted by ContractABI.
func ContractNames() []string {
	return []string{"AddressHub", "shMONAD", "TaskManager"}
}
