package otg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/otgfs/otg/internal/regs"
	"github.com/ardnew/otgfs/otg/sim"
	"github.com/ardnew/otgfs/pkg"
)

func TestRegistersModify(t *testing.T) {
	core := sim.New()
	r := registers{block: core, spinLimit: 8}

	r.store(regs.DCFG, 0xF0F0)
	r.modify(regs.DCFG, 0x00F0, 0x0003)
	assert.Equal(t, uint32(0xF003), core.Reg(regs.DCFG))
	assert.True(t, r.hasBits(regs.DCFG, 0xF000))
	assert.False(t, r.hasBits(regs.DCFG, 0x0F00))

	r.clearBits(regs.DCFG, 0x3)
	r.setBits(regs.DCFG, 0x8)
	assert.Equal(t, uint32(0xF008), core.Reg(regs.DCFG))
}

func TestRegistersWaitBounded(t *testing.T) {
	core := sim.New()
	r := registers{block: core, spinLimit: 16}

	require.ErrorIs(t, r.waitSet(regs.GRSTCTL, regs.GRSTCTL_AHBIDL), pkg.ErrTimeout)
	core.EnableClock()
	require.NoError(t, r.waitSet(regs.GRSTCTL, regs.GRSTCTL_AHBIDL))

	core.SetFlushDelay(4)
	require.NoError(t, r.flushRx())
	core.SetFlushDelay(sim.StuckFlush)
	require.ErrorIs(t, r.flushTx(2), pkg.ErrTimeout)
	assert.Equal(t, 1, core.TxFlushes(2))
}

func TestPushFIFOPadding(t *testing.T) {
	core := sim.New()
	r := registers{block: core, spinLimit: 1}

	r.store(regs.DIEPTSIZ(1), regs.DEPTSIZ_PKTCNT_One|6)
	r.pushFIFO(1, []byte{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 2, core.Writes(regs.FIFO(1)))
	assert.Equal(t, uint32(0x00000605), core.LastWrite(regs.FIFO(1)), "high-order bytes are zero")
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, core.CompleteIn(1))

	r.pushFIFO(2, nil)
	assert.Zero(t, core.Writes(regs.FIFO(2)))
}
