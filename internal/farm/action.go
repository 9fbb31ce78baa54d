package farm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ActionKind names one of the five mutating farm actions.
type ActionKind string

const (
	ActionDeposit         ActionKind = "deposit"
	ActionWithdraw        ActionKind = "withdraw"
	ActionHarvest         ActionKind = "harvest"
	ActionStake           ActionKind = "stake"
	ActionRemoveLiquidity ActionKind = "remove_liquidity"
)

// AllActions lists every action kind in display order.
var AllActions = []ActionKind{
	ActionDeposit,
	ActionWithdraw,
	ActionHarvest,
	ActionStake,
	ActionRemoveLiquidity,
}

// ParseActionKind accepts the canonical name or its dashed form.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "deposit":
		return ActionDeposit, nil
	case "withdraw":
		return ActionWithdraw, nil
	case "harvest":
		return ActionHarvest, nil
	case "stake":
		return ActionStake, nil
	case "remove_liquidity", "remove-liquidity", "remove":
		return ActionRemoveLiquidity, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// TxBatch is an ordered list of instruction groups for one action. Each group
// becomes one transaction; groups are submitted in order.
type TxBatch struct {
	Kind   ActionKind
	FarmID string
	Groups [][]solana.Instruction
}

// Empty reports whether the batch has no instructions to submit.
func (b *TxBatch) Empty() bool {
	if b == nil {
		return true
	}
	for _, g := range b.Groups {
		if len(g) > 0 {
			return false
		}
	}
	return true
}

// Confirmation is returned once every transaction of a batch is confirmed.
type Confirmation struct {
	Signatures []string
}
