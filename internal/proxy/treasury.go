package proxy

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
)

// Withdraw sends amount of asset held by the engine to receiver. It is a raw
// sweep with no accounting of what the balance is made of.
func (e *Engine) Withdraw(ctx context.Context, caller, asset common.Address, amount *big.Int, receiver common.Address) error {
	release, err := e.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := e.owner.Check(caller); err != nil {
		e.logger.WithFields(logrus.Fields{"op": "withdraw", "caller": caller.Hex()}).Warn("rejected non-owner call")
		return err
	}

	err = e.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		return tx.Transfer(asset, e.address, receiver, amount)
	})
	if err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"asset":    asset.Hex(),
		"amount":   amount.String(),
		"receiver": receiver.Hex(),
	}).Info("treasury withdrawal")
	return nil
}
