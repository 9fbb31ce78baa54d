package farmprogram

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm/farmtest"
)

func testUser(t *testing.T) UserAccounts {
	t.Helper()
	f := farmtest.SOLUSDC()
	pda, _, err := UserFarmAddress(f.ProgramID, f.Address, farmtest.Owner)
	require.NoError(t, err)
	return UserAccounts{
		Owner:    farmtest.Owner,
		UserFarm: pda,
		TokenA:   solana.NewWallet().PublicKey(),
		TokenB:   solana.NewWallet().PublicKey(),
		LP:       solana.NewWallet().PublicKey(),
		Reward:   solana.NewWallet().PublicKey(),
	}
}

func ixData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestAmountInstructionEncoding(t *testing.T) {
	f := farmtest.SOLUSDC()
	u := testUser(t)

	cases := []struct {
		name string
		tag  uint8
		make func() (solana.Instruction, error)
	}{
		{"deposit", TagDeposit, func() (solana.Instruction, error) { return NewFarmDepositIx(&f, u, 1_000) }},
		{"unstake", TagUnstakeWithdraw, func() (solana.Instruction, error) { return NewUnstakeWithdrawIx(&f, u, 1_000) }},
		{"withdraw deposited", TagWithdrawDeposited, func() (solana.Instruction, error) { return NewWithdrawDepositedIx(&f, u, 1_000) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ix, err := tc.make()
			require.NoError(t, err)
			data := ixData(t, ix)
			require.Len(t, data, 9)
			assert.Equal(t, tc.tag, data[0])
			assert.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(data[1:]))
			assert.True(t, ix.ProgramID().Equals(f.ProgramID))
		})
	}
}

func TestTagOnlyInstructions(t *testing.T) {
	f := farmtest.SOLUSDC()
	u := testUser(t)

	stake, err := NewFarmStakeIx(&f, u)
	require.NoError(t, err)
	assert.Equal(t, []byte{TagStake}, ixData(t, stake))

	harvest, err := NewHarvestIx(&f, u)
	require.NoError(t, err)
	assert.Equal(t, []byte{TagHarvest}, ixData(t, harvest))

	create, err := NewCreateUserFarmIx(&f, u)
	require.NoError(t, err)
	assert.Equal(t, []byte{TagCreateUserFarm}, ixData(t, create))
	assert.True(t, create.Accounts()[2].IsSigner)
}

func TestPoolDepositInstruction(t *testing.T) {
	f := farmtest.SOLUSDC()
	u := testUser(t)

	ix, err := NewPoolDepositIx(&f.Pool, u, DepositAllArgs{
		Tag:             99, // overwritten
		PoolTokenAmount: 7,
		MaximumTokenA:   8,
		MaximumTokenB:   9,
	})
	require.NoError(t, err)

	var got DepositAllArgs
	require.NoError(t, bin.NewBorshDecoder(ixData(t, ix)).Decode(&got))
	assert.Equal(t, DepositAllArgs{Tag: TagDepositAllTokenTypes, PoolTokenAmount: 7, MaximumTokenA: 8, MaximumTokenB: 9}, got)

	accts := ix.Accounts()
	require.Len(t, accts, 10)
	assert.True(t, accts[2].PublicKey.Equals(u.Owner))
	assert.True(t, accts[2].IsSigner)
	assert.True(t, accts[8].PublicKey.Equals(u.LP))
	assert.True(t, ix.ProgramID().Equals(f.Pool.ProgramID))
}

func TestPoolWithdrawInstruction(t *testing.T) {
	f := farmtest.SOLUSDC()
	u := testUser(t)

	ix, err := NewPoolWithdrawIx(&f.Pool, u, WithdrawAllArgs{PoolTokenAmount: 5, MinimumTokenA: 1, MinimumTokenB: 2})
	require.NoError(t, err)

	data := ixData(t, ix)
	require.Len(t, data, 25)
	assert.Equal(t, TagWithdrawAllTokenTypes, data[0])
	assert.Len(t, ix.Accounts(), 11)
}

func TestSystemAndTokenHelpers(t *testing.T) {
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	transfer := NewSystemTransferIx(from, to, 42)
	data := ixData(t, transfer)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(data[4:]))

	assert.Equal(t, []byte{17}, ixData(t, NewTokenSyncNativeIx(to)))
	assert.Equal(t, []byte{9}, ixData(t, NewTokenCloseAccountIx(to, from, from)))

	ata, _, err := solana.FindAssociatedTokenAddress(from, farmtest.USDC)
	require.NoError(t, err)
	create := NewCreateAssociatedTokenAccountIx(from, ata, from, farmtest.USDC)
	assert.True(t, create.ProgramID().Equals(solana.SPLAssociatedTokenAccountProgramID))
	assert.Empty(t, ixData(t, create))
}

func TestDecodeUserFarmAccount(t *testing.T) {
	f := farmtest.SOLUSDC()
	want := UserFarmAccount{
		Version:            1,
		Farm:               f.Address,
		Owner:              farmtest.Owner,
		DepositTokenAmount: 3,
		StakeTokenAmount:   5_000_000,
		RewardDebt:         11,
		PendingReward:      2_500_000,
	}
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(want))

	got, err := DecodeUserFarmAccount(buf.Bytes(), f.Address)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	other := farmtest.RAYUSDC()
	_, err = DecodeUserFarmAccount(buf.Bytes(), other.Address)
	assert.Error(t, err)

	_, err = DecodeUserFarmAccount([]byte{1, 2}, f.Address)
	assert.Error(t, err)
}

func TestUserFarmAddressDeterministic(t *testing.T) {
	f := farmtest.SOLUSDC()
	a, _, err := UserFarmAddress(f.ProgramID, f.Address, farmtest.Owner)
	require.NoError(t, err)
	b, _, err := UserFarmAddress(f.ProgramID, f.Address, farmtest.Owner)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := farmtest.RAYUSDC()
	c, _, err := UserFarmAddress(other.ProgramID, other.Address, farmtest.Owner)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
