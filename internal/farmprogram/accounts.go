package farmprogram

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// UserFarmSeed prefixes the user-farm PDA seeds.
const UserFarmSeed = "user_farm"

// UserFarmAccount is the on-chain position of one owner in one farm.
type UserFarmAccount struct {
	Version            uint8
	Farm               solana.PublicKey
	Owner              solana.PublicKey
	DepositTokenAmount uint64
	StakeTokenAmount   uint64
	RewardDebt         uint64
	PendingReward      uint64
}

// UserFarmAddress derives the user-farm PDA for (farm, owner).
func UserFarmAddress(programID, farmAddr, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte(UserFarmSeed),
			farmAddr.Bytes(),
			owner.Bytes(),
		},
		programID,
	)
}

// DecodeUserFarmAccount parses account data and checks it belongs to farmAddr.
func DecodeUserFarmAccount(data []byte, farmAddr solana.PublicKey) (*UserFarmAccount, error) {
	var acc UserFarmAccount
	if err := bin.NewBorshDecoder(data).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode user farm account: %w", err)
	}
	if !acc.Farm.Equals(farmAddr) {
		return nil, fmt.Errorf("user farm account belongs to farm %s, want %s", acc.Farm, farmAddr)
	}
	return &acc, nil
}
