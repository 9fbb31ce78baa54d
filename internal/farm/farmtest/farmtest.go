// Package farmtest provides farm fixtures for tests.
package farmtest

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

var (
	WrappedSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDC       = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	RAY        = solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")
	Owner      = solana.MustPublicKeyFromBase58("67vHA8qZGCJKw1UNGUJZME4MwEWDRGWzp7MGvsut43A8")
)

// SOLUSDC returns a SOL(9)/USDC(6) farm with a 6-decimal LP and reward mint.
func SOLUSDC() farm.Farm {
	return farm.Farm{
		ID:          "sol-usdc",
		Name:        "SOL-USDC",
		ProgramID:   solana.MustPublicKeyFromBase58("5CNGRjcya2kdJcLd1vyDSMNFcqyj9FMBfirMvZh6cdQU"),
		Address:     solana.MustPublicKeyFromBase58("Cts5M2tNJND2oUSwKMyWYo5q8wvnQgieBTygT5b1Dcmc"),
		Authority:   solana.MustPublicKeyFromBase58("7aKkasdPixDbcXhgV27YUQ5qaxaiMt4bL6TkxoizSa8S"),
		LPVault:     solana.MustPublicKeyFromBase58("A22wiuwN5DdHfxhBXzJPv46qJ4EKx44hRTgKwdSchoCN"),
		RewardVault: solana.MustPublicKeyFromBase58("CgHa9HD32MZ1FjPMTgJ3HYC1KPaMyoJKjq6KpsK25L2h"),
		Pool: farm.Pool{
			ProgramID:   solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP"),
			SwapAccount: solana.MustPublicKeyFromBase58("2RW28j1iyYShQXboeDR6aKPfC9uJ8PwCAi47LLemeSEQ"),
			Authority:   solana.MustPublicKeyFromBase58("68wgE9NZMa8Av5qemaYivwjAJ1X5d8KSRZTbmiTazzWu"),
			TokenA: farm.Leg{
				Mint:  farm.Mint{Address: WrappedSOL, Decimals: 9, Symbol: "SOL"},
				Vault: solana.MustPublicKeyFromBase58("9Thb12137LBA7XVsgh5mq29kwpDPq9bHwXYUcCi9jQdL"),
			},
			TokenB: farm.Leg{
				Mint:  farm.Mint{Address: USDC, Decimals: 6, Symbol: "USDC"},
				Vault: solana.MustPublicKeyFromBase58("EKSbRhWbPhxYGbS8UqPjRJzETqjLsLnD5zz1RjQ8k29M"),
			},
			PoolMint:   solana.MustPublicKeyFromBase58("F6hFmetfA348Uqjdg8Fhs4vdYaKvwQzkGAAMWNmKG7jj"),
			FeeAccount: solana.MustPublicKeyFromBase58("AH2uE27MAVkgWrUDmAhm8Wf2zezasGgr9pwHwxtFu9p3"),
		},
		StakeTokenMint: farm.Mint{
			Address:  solana.MustPublicKeyFromBase58("F6hFmetfA348Uqjdg8Fhs4vdYaKvwQzkGAAMWNmKG7jj"),
			Decimals: 6,
			Symbol:   "SOL-USDC LP",
		},
		RewardTokenMint: farm.Mint{
			Address:  solana.MustPublicKeyFromBase58("8FviHi97yv6exyoTuwFYS3oymKFcQAgkUViFsUXMtNg7"),
			Decimals: 6,
			Symbol:   "1SOL",
		},
		TVL: 1250000.5,
		APY: 0.4215,
	}
}

// RAYUSDC returns a second farm, useful for cross-farm checks.
func RAYUSDC() farm.Farm {
	f := SOLUSDC()
	f.ID = "ray-usdc"
	f.Name = "RAY-USDC"
	f.Address = solana.MustPublicKeyFromBase58("CxFu4eP2jxXkWauvYoV1Vy4T2ctnYGSu2e96npFEoUZK")
	f.Pool.TokenA.Mint = farm.Mint{Address: RAY, Decimals: 6, Symbol: "RAY"}
	f.TVL, f.APY = 0, 0
	return f
}
