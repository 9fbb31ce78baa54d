package farmprogram

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// Farm program instruction tags.
const (
	TagCreateUserFarm    uint8 = 1
	TagDeposit           uint8 = 2
	TagStake             uint8 = 3
	TagUnstakeWithdraw   uint8 = 4
	TagHarvest           uint8 = 5
	TagWithdrawDeposited uint8 = 6
)

// Token-swap pool instruction tags.
const (
	TagDepositAllTokenTypes  uint8 = 2
	TagWithdrawAllTokenTypes uint8 = 3
)

type tagArgs struct {
	Tag uint8
}

type amountArgs struct {
	Tag    uint8
	Amount uint64
}

// DepositAllArgs is the data of a two-sided pool deposit.
type DepositAllArgs struct {
	Tag             uint8
	PoolTokenAmount uint64
	MaximumTokenA   uint64
	MaximumTokenB   uint64
}

// WithdrawAllArgs is the data of a two-sided pool withdrawal.
type WithdrawAllArgs struct {
	Tag             uint8
	PoolTokenAmount uint64
	MinimumTokenA   uint64
	MinimumTokenB   uint64
}

func encodeArgs(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

// UserAccounts are the connected wallet's accounts an instruction touches.
type UserAccounts struct {
	Owner    solana.PublicKey
	UserFarm solana.PublicKey // PDA
	TokenA   solana.PublicKey
	TokenB   solana.PublicKey
	LP       solana.PublicKey
	Reward   solana.PublicKey
}

// NewCreateUserFarmIx creates the owner's user-farm account.
func NewCreateUserFarmIx(f *farm.Farm, u UserAccounts) (solana.Instruction, error) {
	data, err := encodeArgs(tagArgs{Tag: TagCreateUserFarm})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER().WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, data), nil
}

// NewFarmDepositIx moves amount LP tokens from the owner into the farm vault.
func NewFarmDepositIx(f *farm.Farm, u UserAccounts, amount uint64) (solana.Instruction, error) {
	data, err := encodeArgs(amountArgs{Tag: TagDeposit, Amount: amount})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address).WRITE(),
		solana.Meta(f.Authority),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(u.LP).WRITE(),
		solana.Meta(f.LPVault).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}

// NewFarmStakeIx stakes every deposited LP token of the user farm.
func NewFarmStakeIx(f *farm.Farm, u UserAccounts) (solana.Instruction, error) {
	data, err := encodeArgs(tagArgs{Tag: TagStake})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address).WRITE(),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER(),
	}, data), nil
}

// NewUnstakeWithdrawIx unstakes amount LP tokens back to the owner and pays
// out the pending reward.
func NewUnstakeWithdrawIx(f *farm.Farm, u UserAccounts, amount uint64) (solana.Instruction, error) {
	data, err := encodeArgs(amountArgs{Tag: TagUnstakeWithdraw, Amount: amount})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address).WRITE(),
		solana.Meta(f.Authority),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(u.LP).WRITE(),
		solana.Meta(f.LPVault).WRITE(),
		solana.Meta(f.RewardVault).WRITE(),
		solana.Meta(u.Reward).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}

// NewHarvestIx pays the pending reward into the owner's reward account.
func NewHarvestIx(f *farm.Farm, u UserAccounts) (solana.Instruction, error) {
	data, err := encodeArgs(tagArgs{Tag: TagHarvest})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address).WRITE(),
		solana.Meta(f.Authority),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(f.RewardVault).WRITE(),
		solana.Meta(u.Reward).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}

// NewWithdrawDepositedIx returns amount deposited-but-unstaked LP tokens.
func NewWithdrawDepositedIx(f *farm.Farm, u UserAccounts, amount uint64) (solana.Instruction, error) {
	data, err := encodeArgs(amountArgs{Tag: TagWithdrawDeposited, Amount: amount})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(f.ProgramID, []*solana.AccountMeta{
		solana.Meta(f.Address).WRITE(),
		solana.Meta(f.Authority),
		solana.Meta(u.UserFarm).WRITE(),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(u.LP).WRITE(),
		solana.Meta(f.LPVault).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}

// NewPoolDepositIx builds a token-swap DepositAllTokenTypes instruction.
// Account order:
// 0. swap  1. authority  2. user transfer authority (signer)
// 3. user token A  4. user token B  5. pool vault A  6. pool vault B
// 7. pool mint  8. user LP destination  9. token program
func NewPoolDepositIx(p *farm.Pool, u UserAccounts, args DepositAllArgs) (solana.Instruction, error) {
	args.Tag = TagDepositAllTokenTypes
	data, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(p.ProgramID, []*solana.AccountMeta{
		solana.Meta(p.SwapAccount),
		solana.Meta(p.Authority),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(u.TokenA).WRITE(),
		solana.Meta(u.TokenB).WRITE(),
		solana.Meta(p.TokenA.Vault).WRITE(),
		solana.Meta(p.TokenB.Vault).WRITE(),
		solana.Meta(p.PoolMint).WRITE(),
		solana.Meta(u.LP).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}

// NewPoolWithdrawIx builds a token-swap WithdrawAllTokenTypes instruction.
// Account order:
// 0. swap  1. authority  2. user transfer authority (signer)
// 3. pool mint  4. user LP source  5. pool vault A  6. pool vault B
// 7. user token A  8. user token B  9. fee account  10. token program
func NewPoolWithdrawIx(p *farm.Pool, u UserAccounts, args WithdrawAllArgs) (solana.Instruction, error) {
	args.Tag = TagWithdrawAllTokenTypes
	data, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(p.ProgramID, []*solana.AccountMeta{
		solana.Meta(p.SwapAccount),
		solana.Meta(p.Authority),
		solana.Meta(u.Owner).SIGNER(),
		solana.Meta(p.PoolMint).WRITE(),
		solana.Meta(u.LP).WRITE(),
		solana.Meta(p.TokenA.Vault).WRITE(),
		solana.Meta(p.TokenB.Vault).WRITE(),
		solana.Meta(u.TokenA).WRITE(),
		solana.Meta(u.TokenB).WRITE(),
		solana.Meta(p.FeeAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, data), nil
}
