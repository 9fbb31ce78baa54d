package ai

// actionsSchemaDescription describes the action history table for NL->SQL
// prompting. Keep in sync with cache.ClickHouseStore.EnsureSchema.
const actionsSchemaDescription = `
Database: farm
Table: farm_actions

Columns:
  - id          String              -- action id, e.g. "act_1712345678901234567"
  - timestamp   DateTime64(3, 'UTC') -- when the action was submitted
  - farm_id     String              -- farm identifier, e.g. "sol-usdc"
  - farm        String              -- farm display name, e.g. "SOL-USDC"
  - action      String              -- one of deposit, withdraw, harvest, stake, remove_liquidity
  - owner       String              -- wallet address (base58)
  - status      String              -- succeeded or failed
  - amount_a    Decimal(38, 18)     -- deposit amount of the pool's first token (display units)
  - amount_b    Decimal(38, 18)     -- deposit amount of the pool's second token (display units)
  - amount      Decimal(38, 18)     -- withdraw amount in LP tokens (display units)
  - signatures  Array(String)       -- confirmed transaction signatures
  - error       String              -- failure cause, empty on success
  - duration_ms Int64               -- submit-to-confirm time

Notes:
  - Only deposits carry amount_a/amount_b; only withdrawals carry amount. Other columns are 0.
  - Success rate: countIf(status = 'succeeded') / count().
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
