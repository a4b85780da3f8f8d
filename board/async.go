// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"go.uber.org/zap"
	"periph.io/x/conn/v3/spi"
)

// goroutineTx stands in for a DMA engine on hosts whose SPI driver only
// offers blocking transfers: the transfer runs on its own goroutine and
// reports completion when the driver returns.
type goroutineTx struct {
	conn spi.Conn
	log  *zap.Logger
}

func (g *goroutineTx) StartTx(w []byte, done func()) error {
	go func() {
		if err := g.conn.Tx(w, nil); err != nil {
			g.log.Error("SPI transfer failed",
				zap.Stringer("conn", g.conn),
				zap.Binary("tx", w),
				zap.Error(err))
		}
		done()
	}()
	return nil
}
