package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmengine"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

// actionTimeout covers build, signing, every confirmation round and the
// refresh cascade.
const actionTimeout = 2 * time.Minute

func (h *Handlers) orchestrator(c echo.Context) (*farmengine.Orchestrator, error) {
	o, err := h.Engine.Farm(c.Param("id"))
	if err != nil {
		return nil, h.engineErr(c, err)
	}
	return o, nil
}

// FarmsList returns the position view of every farm
func (h *Handlers) FarmsList(c echo.Context) error {
	farms := h.Engine.Farms()
	items := make([]farmengine.PositionView, 0, len(farms))
	for _, o := range farms {
		items = append(items, o.View())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FarmGet returns one farm's position view
func (h *Handlers) FarmGet(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}
	return c.JSON(http.StatusOK, o.View())
}

// FarmRefresh re-reads the farm's on-chain state. Partial failures are
// reported alongside the view, which keeps the last good values.
func (h *Handlers) FarmRefresh(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	resp := map[string]any{}
	if err := o.Refresh(ctx); err != nil {
		h.logger().WithError(err).WithField("farm", o.Farm().ID).Warn("refresh incomplete")
		resp["refresh_error"] = err.Error()
	}
	resp["view"] = o.View()
	return c.JSON(http.StatusOK, resp)
}

// FarmEstimate converts an amount on one leg into the other
// Query: amount (display units), reverse (bool, B to A when set)
func (h *Handlers) FarmEstimate(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}

	amount, err := units.ParseAmount(c.QueryParam("amount"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": c.QueryParam("amount")})
	}
	reverse := false
	if s := c.QueryParam("reverse"); s != "" {
		if reverse, err = strconv.ParseBool(s); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid reverse", map[string]any{"reverse": "must be a boolean"})
		}
	}

	implied, err := o.Estimate(amount, reverse)
	if err != nil {
		return h.engineErr(c, err)
	}
	return c.JSON(http.StatusOK, EstimateResponse{
		FarmID:  o.Farm().ID,
		Amount:  amount,
		Reverse: reverse,
		Implied: implied,
	})
}

// FarmLink recomputes the other deposit leg after one leg was edited
func (h *Handlers) FarmLink(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}

	var req LinkRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	side, err := farmengine.ParseSide(req.Side)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "a or b"})
	}
	amount, err := units.ParseAmount(req.Amount)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": req.Amount})
	}

	pair, err := o.Link(side, amount)
	if err != nil {
		return h.engineErr(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// FarmMax fills one deposit leg with the wallet's spendable balance
// Query: side (a or b)
func (h *Handlers) FarmMax(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}
	side, err := farmengine.ParseSide(c.QueryParam("side"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "a or b"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	pair, err := o.LinkMax(ctx, side)
	if err != nil {
		return h.engineErr(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// FarmWithdrawMax returns the full staked amount
func (h *Handlers) FarmWithdrawMax(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}
	return c.JSON(http.StatusOK, WithdrawMaxResponse{Amount: o.WithdrawMax()})
}

// FarmActions reports the availability of every action
// Query: amount_a, amount_b, amount (optional pending inputs)
func (h *Handlers) FarmActions(c echo.Context) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}

	var req farmengine.ActionRequest
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"amount_a", &req.AmountA},
		{"amount_b", &req.AmountB},
		{"amount", &req.Amount},
	}
	for _, f := range fields {
		v, err := units.ParseAmount(c.QueryParam(f.name))
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{f.name: c.QueryParam(f.name)})
		}
		*f.dst = v
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	items := make([]farmengine.Availability, 0, len(farm.AllActions))
	for _, kind := range farm.AllActions {
		req.Kind = kind
		items = append(items, o.Check(ctx, req))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FarmDeposit adds both legs to the pool and stakes the minted LP tokens
func (h *Handlers) FarmDeposit(c echo.Context) error {
	var body DepositRequest
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	a, err := units.ParseAmount(body.AmountA)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount_a": body.AmountA})
	}
	b, err := units.ParseAmount(body.AmountB)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount_b": body.AmountB})
	}
	return h.execute(c, farmengine.ActionRequest{Kind: farm.ActionDeposit, AmountA: a, AmountB: b})
}

// FarmWithdraw unstakes LP tokens and withdraws both legs
func (h *Handlers) FarmWithdraw(c echo.Context) error {
	var body WithdrawRequest
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	amount, err := units.ParseAmount(body.Amount)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": body.Amount})
	}
	return h.execute(c, farmengine.ActionRequest{Kind: farm.ActionWithdraw, Amount: amount})
}

// FarmHarvest claims pending rewards
func (h *Handlers) FarmHarvest(c echo.Context) error {
	return h.execute(c, farmengine.ActionRequest{Kind: farm.ActionHarvest})
}

// FarmStake stakes deposited LP tokens
func (h *Handlers) FarmStake(c echo.Context) error {
	return h.execute(c, farmengine.ActionRequest{Kind: farm.ActionStake})
}

// FarmRemoveLiquidity withdraws deposited-but-unstaked LP tokens from the pool
func (h *Handlers) FarmRemoveLiquidity(c echo.Context) error {
	return h.execute(c, farmengine.ActionRequest{Kind: farm.ActionRemoveLiquidity})
}

func (h *Handlers) execute(c echo.Context, req farmengine.ActionRequest) error {
	o, err := h.orchestrator(c)
	if o == nil {
		return err
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), actionTimeout)
	defer cancel()

	res, err := o.Execute(ctx, req)
	if err != nil {
		return h.engineErr(c, err)
	}

	resp := ActionResponse{Result: res, View: o.View()}
	if res.RefreshErr != nil {
		resp.RefreshErr = res.RefreshErr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// FarmHistory returns past actions of one farm, newest first
// Accepts limit query parameter (default: 50, range: 1-500)
func (h *Handlers) FarmHistory(c echo.Context) error {
	limit, ok := limitParam(c, 50, 500)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 500"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Engine.History(ctx, c.Param("id"), limit)
	if err != nil {
		return h.engineErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// RecentActions returns the newest actions across all farms
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentActions(c echo.Context) error {
	limit, ok := limitParam(c, 100, 200)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Engine.RecentActions(ctx, int64(limit))
	if err != nil {
		return h.engineErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Wallet describes the wallet session
func (h *Handlers) Wallet(c echo.Context) error {
	return c.JSON(http.StatusOK, WalletResponse{Connected: h.Engine.Connected(), Owner: h.Engine.Owner()})
}

// WalletConnect opens the session and loads every farm with the user's positions
func (h *Handlers) WalletConnect(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.Engine.Connect(ctx); err != nil {
		if !h.Engine.Connected() {
			return h.err(c, http.StatusBadGateway, "wallet connect failed", map[string]any{"err": err.Error()})
		}
		// Connected, but some farms failed to load.
		h.logger().WithError(err).Warn("farm load after connect incomplete")
	}
	return c.JSON(http.StatusOK, WalletResponse{Connected: true, Owner: h.Engine.Owner()})
}

// WalletDisconnect ends the session and drops cached user positions
func (h *Handlers) WalletDisconnect(c echo.Context) error {
	h.Engine.Disconnect()
	return c.JSON(http.StatusOK, WalletResponse{Connected: false})
}
