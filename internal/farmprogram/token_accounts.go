package farmprogram

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountChecker reports whether an account exists on chain.
type AccountChecker interface {
	AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error)
}

// ResolvedTokenAccount is an owner's token account for a mint plus any
// instructions needed to make it usable.
type ResolvedTokenAccount struct {
	Account solana.PublicKey
	Created bool // true if PreIxs create the account
	PreIxs  []solana.Instruction
}

// ResolveTokenAccount returns owner's associated token account for mint,
// adding a create instruction when it does not exist yet.
func ResolveTokenAccount(ctx context.Context, checker AccountChecker, owner, mint solana.PublicKey) (*ResolvedTokenAccount, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive token account for %s: %w", mint, err)
	}

	exists, err := checker.AccountExists(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("check token account %s: %w", ata, err)
	}
	if exists {
		return &ResolvedTokenAccount{Account: ata}, nil
	}

	return &ResolvedTokenAccount{
		Account: ata,
		Created: true,
		PreIxs:  []solana.Instruction{NewCreateAssociatedTokenAccountIx(owner, ata, owner, mint)},
	}, nil
}

// NewCreateAssociatedTokenAccountIx builds an instruction to create an ATA.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner
// 3. mint
// 4. system_program
// 5. token_program
func NewCreateAssociatedTokenAccountIx(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		solana.Meta(payer).SIGNER().WRITE(),
		solana.Meta(ata).WRITE(),
		solana.Meta(owner),
		solana.Meta(mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, nil)
}

// NewSystemTransferIx builds a SystemProgram transfer instruction.
func NewSystemTransferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// u32 instruction index (2 = Transfer), u64 lamports
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	accounts := []*solana.AccountMeta{
		solana.Meta(from).SIGNER().WRITE(),
		solana.Meta(to).WRITE(),
	}
	return solana.NewInstruction(solana.SystemProgramID, accounts, data)
}

// NewTokenSyncNativeIx builds a SPL Token SyncNative instruction.
func NewTokenSyncNativeIx(nativeAccount solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(solana.TokenProgramID, []*solana.AccountMeta{
		solana.Meta(nativeAccount).WRITE(),
	}, []byte{17})
}

// NewTokenCloseAccountIx builds a SPL Token CloseAccount instruction.
func NewTokenCloseAccountIx(account, destination, owner solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(solana.TokenProgramID, []*solana.AccountMeta{
		solana.Meta(account).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, []byte{9})
}
