package farm

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
)

// MintConfig is a mint entry in the farm JSON config.
type MintConfig struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// FarmConfig represents a farm entry in the JSON config
type FarmConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProgramID   string `json:"program_id"`
	Address     string `json:"address"`
	Authority   string `json:"authority"`
	LPVault     string `json:"lp_vault"`
	RewardVault string `json:"reward_vault"`

	PoolProgramID   string     `json:"pool_program_id"`
	SwapAccount     string     `json:"swap_account"`
	PoolAuthority   string     `json:"pool_authority"`
	TokenA          MintConfig `json:"token_a"`
	VaultA          string     `json:"vault_a"`
	TokenB          MintConfig `json:"token_b"`
	VaultB          string     `json:"vault_b"`
	PoolMint        MintConfig `json:"pool_mint"`
	PoolFeeAccount  string     `json:"pool_fee_account"`
	RewardTokenMint MintConfig `json:"reward_mint"`

	TVL float64 `json:"tvl"`
	APY float64 `json:"apy"`
}

// Registry holds all configured farms keyed by id.
type Registry struct {
	farms map[string]*Farm
}

// NewRegistry loads farms from a JSON file
func NewRegistry(configPath string) (*Registry, error) {
	farms, err := LoadFarmsFromJSON(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load farms: %w", err)
	}
	return NewRegistryFromFarms(farms)
}

// NewRegistryFromFarms builds a registry from already parsed farms.
func NewRegistryFromFarms(farms []Farm) (*Registry, error) {
	r := &Registry{farms: make(map[string]*Farm, len(farms))}
	for i := range farms {
		f := farms[i]
		if f.ID == "" {
			return nil, fmt.Errorf("farm %d: id is required", i)
		}
		if _, dup := r.farms[f.ID]; dup {
			return nil, fmt.Errorf("duplicate farm id %q", f.ID)
		}
		r.farms[f.ID] = &f
	}
	return r, nil
}

// LoadFarmsFromJSON reads and parses farm configurations
func LoadFarmsFromJSON(path string) ([]Farm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configs []FarmConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	farms := make([]Farm, 0, len(configs))
	for i, cfg := range configs {
		f, err := parseFarmConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("farm %d (%s): %w", i, cfg.ID, err)
		}
		farms = append(farms, f)
	}
	return farms, nil
}

// keyParser collects the first parse error so a config entry can be
// converted field by field.
type keyParser struct {
	err error
}

func (p *keyParser) key(field, s string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return pk
}

func (p *keyParser) mint(field string, m MintConfig) Mint {
	if p.err == nil && m.Decimals > 18 {
		p.err = fmt.Errorf("%s: decimals %d out of range", field, m.Decimals)
	}
	symbol := m.Symbol
	if symbol == "" {
		symbol = constants.SymbolFor(m.Address)
	}
	return Mint{
		Address:  p.key(field+".address", m.Address),
		Decimals: m.Decimals,
		Symbol:   symbol,
	}
}

func parseFarmConfig(cfg FarmConfig) (Farm, error) {
	if cfg.ID == "" {
		return Farm{}, fmt.Errorf("id is required")
	}

	p := &keyParser{}
	f := Farm{
		ID:          cfg.ID,
		Name:        cfg.Name,
		ProgramID:   p.key("program_id", cfg.ProgramID),
		Address:     p.key("address", cfg.Address),
		Authority:   p.key("authority", cfg.Authority),
		LPVault:     p.key("lp_vault", cfg.LPVault),
		RewardVault: p.key("reward_vault", cfg.RewardVault),
		Pool: Pool{
			ProgramID:   p.key("pool_program_id", cfg.PoolProgramID),
			SwapAccount: p.key("swap_account", cfg.SwapAccount),
			Authority:   p.key("pool_authority", cfg.PoolAuthority),
			TokenA:      Leg{Mint: p.mint("token_a", cfg.TokenA), Vault: p.key("vault_a", cfg.VaultA)},
			TokenB:      Leg{Mint: p.mint("token_b", cfg.TokenB), Vault: p.key("vault_b", cfg.VaultB)},
			FeeAccount:  p.key("pool_fee_account", cfg.PoolFeeAccount),
		},
		RewardTokenMint: p.mint("reward_mint", cfg.RewardTokenMint),
		TVL:             cfg.TVL,
		APY:             cfg.APY,
	}
	f.StakeTokenMint = p.mint("pool_mint", cfg.PoolMint)
	f.Pool.PoolMint = f.StakeTokenMint.Address
	if p.err != nil {
		return Farm{}, p.err
	}

	if f.Pool.TokenA.Mint.Address.Equals(f.Pool.TokenB.Mint.Address) {
		return Farm{}, fmt.Errorf("token_a and token_b must differ")
	}
	if f.Name == "" {
		f.Name = f.Pool.TokenA.Mint.Symbol + "-" + f.Pool.TokenB.Mint.Symbol
	}
	return f, nil
}

// Get returns the farm with the given id.
func (r *Registry) Get(id string) (*Farm, error) {
	f, ok := r.farms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFarmNotFound, id)
	}
	return f, nil
}

// All returns every registered farm ordered by id.
func (r *Registry) All() []*Farm {
	out := make([]*Farm, 0, len(r.farms))
	for _, f := range r.farms {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered farms.
func (r *Registry) Len() int {
	return len(r.farms)
}
