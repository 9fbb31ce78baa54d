package wallet

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// Submit sends each instruction group of batch as its own transaction, in
// order, waiting for confirmation before the next. Signatures of confirmed
// groups are returned even when a later group fails.
func (w *Wallet) Submit(ctx context.Context, batch *farm.TxBatch) (*farm.Confirmation, error) {
	if !w.Connected() {
		return nil, farm.ErrNotConnected
	}
	if batch.Empty() {
		return nil, fmt.Errorf("empty transaction batch")
	}

	conf := &farm.Confirmation{}
	for i, group := range batch.Groups {
		if len(group) == 0 {
			continue
		}
		log := w.logger.WithFields(logrus.Fields{
			"farm":   batch.FarmID,
			"action": batch.Kind,
			"tx":     fmt.Sprintf("%d/%d", i+1, len(batch.Groups)),
		})

		tx, err := w.BuildTransaction(ctx, group)
		if err != nil {
			return conf, fmt.Errorf("tx %d: %w", i+1, err)
		}

		if w.cfg.RequireSimulation {
			sim, err := w.SimulateTransaction(ctx, tx)
			if err != nil {
				if sim != nil {
					log.WithField("logs", sim.Logs).Debug("simulation logs")
				}
				return conf, fmt.Errorf("tx %d: %w", i+1, err)
			}
			log.WithField("units", sim.UnitsConsumed).Debug("simulation ok")
		}

		if err := w.SignTx(tx); err != nil {
			return conf, fmt.Errorf("tx %d: %w", i+1, err)
		}

		sig, err := w.SendTx(ctx, tx)
		if err != nil {
			return conf, fmt.Errorf("tx %d: send: %w", i+1, err)
		}
		log.WithField("signature", sig).Debug("transaction sent")

		if err := w.ConfirmTransaction(ctx, sig); err != nil {
			return conf, fmt.Errorf("tx %d (%s): %w", i+1, sig, err)
		}
		conf.Signatures = append(conf.Signatures, sig)
	}
	return conf, nil
}
