package signal

import (
	"context"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
)

func (ctl *SignalWSController) handlePing(_ context.Context, _ core.SessionID, conn core.SignalConnection, _ inbound) {
	ctl.send(conn, outPong, nil)
}
