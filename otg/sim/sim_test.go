package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/otgfs/otg/internal/regs"
)

func TestInterruptFlagsWriteOneToClear(t *testing.T) {
	c := New()
	c.SetInterrupt(regs.GINTSTS_USBRST | regs.GINTSTS_USBSUSP)

	c.Store(regs.GINTSTS, regs.GINTSTS_USBRST)
	sts := c.Load(regs.GINTSTS)
	assert.Zero(t, sts&regs.GINTSTS_USBRST)
	assert.NotZero(t, sts&regs.GINTSTS_USBSUSP)

	c.Store(regs.GINTSTS, 0xFFFF_FFFF)
	assert.Zero(t, c.Load(regs.GINTSTS))
}

func TestAHBIdleFollowsClock(t *testing.T) {
	c := New()
	assert.Zero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_AHBIDL)
	c.EnableClock()
	assert.NotZero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_AHBIDL)
	assert.True(t, c.ClockEnabled())
}

func TestReceiveQueue(t *testing.T) {
	c := New()
	c.PushSetup(0, []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x12, 0x00})
	require.Equal(t, 2, c.RxPending())
	assert.NotZero(t, c.Load(regs.GINTSTS)&regs.GINTSTS_RXFLVL)

	peek := c.Load(regs.GRXSTSR)
	assert.Equal(t, peek, c.Load(regs.GRXSTSR), "peek must not consume")
	ep, count, status := regs.DecodeRxStatus(peek)
	assert.Equal(t, 0, ep)
	assert.Equal(t, 8, count)
	assert.Equal(t, regs.PKTSTS_SetupData, status)

	assert.Equal(t, peek, c.Load(regs.GRXSTSP))
	assert.Equal(t, 1, c.RxPending())
	assert.Equal(t, uint32(0x01000680), c.Load(regs.FIFO(0)))
	assert.Equal(t, uint32(0x00120000), c.Load(regs.FIFO(0)))
	assert.Zero(t, c.RxWords())

	_, _, status = regs.DecodeRxStatus(c.Load(regs.GRXSTSP))
	assert.Equal(t, regs.PKTSTS_SetupComplete, status)
	assert.Zero(t, c.Load(regs.GINTSTS)&regs.GINTSTS_RXFLVL)
}

func TestPartialWordPadding(t *testing.T) {
	c := New()
	c.PushOut(1, []byte{1, 2, 3, 4, 5})
	assert.Equal(t, 2, c.RxWords())
	c.Load(regs.GRXSTSP)
	assert.Equal(t, uint32(0x04030201), c.Load(regs.FIFO(1)))
	assert.Equal(t, uint32(0x00000005), c.Load(regs.FIFO(1)))
}

func TestFlush(t *testing.T) {
	t.Run("Immediate", func(t *testing.T) {
		c := New()
		c.PushOut(1, []byte{1, 2, 3, 4})
		c.Store(regs.GRSTCTL, regs.GRSTCTL_RXFFLSH)
		assert.Zero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_RXFFLSH)
		assert.Zero(t, c.RxPending())
		assert.Zero(t, c.RxWords())
		assert.Equal(t, 1, c.RxFlushes())
	})

	t.Run("Delayed", func(t *testing.T) {
		c := New()
		c.SetFlushDelay(2)
		c.Store(regs.GRSTCTL, 3<<regs.GRSTCTL_TXFNUM_Pos|regs.GRSTCTL_TXFFLSH)
		assert.NotZero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_TXFFLSH)
		assert.NotZero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_TXFFLSH)
		assert.Zero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_TXFFLSH)
		assert.Equal(t, 1, c.TxFlushes(3))
		assert.Zero(t, c.TxFlushes(0))
	})

	t.Run("Stuck", func(t *testing.T) {
		c := New()
		c.SetFlushDelay(StuckFlush)
		c.Store(regs.GRSTCTL, regs.GRSTCTL_RXFFLSH)
		for i := 0; i < 100; i++ {
			require.NotZero(t, c.Load(regs.GRSTCTL)&regs.GRSTCTL_RXFFLSH)
		}
	})
}

func TestEndpointControlWriteOnlyBits(t *testing.T) {
	c := New()
	off := regs.DIEPCTL(1)
	c.Store(off, regs.DEPCTL_USBAEP|regs.DEPCTL_CNAK|regs.DEPCTL_SD0PID|regs.DEPCTL_EPENA)
	assert.Equal(t, regs.DEPCTL_USBAEP|regs.DEPCTL_EPENA, c.Reg(off))
	assert.NotZero(t, c.LastWrite(off)&regs.DEPCTL_SD0PID)

	c.Store(off, c.Load(off)|regs.DEPCTL_EPDIS)
	assert.Equal(t, regs.DEPCTL_USBAEP, c.Reg(off))
}

func TestInTransfer(t *testing.T) {
	c := New()
	c.Store(regs.DIEPMSK, regs.DEPINT_XFRC)
	c.Store(regs.DAINTMSK, 1<<2)
	c.Store(regs.DIEPTSIZ(2), regs.DEPTSIZ_PKTCNT_One|5)
	c.Store(regs.DIEPCTL(2), regs.DEPCTL_USBAEP|regs.DEPCTL_EPENA)
	c.Store(regs.FIFO(2), 0x64636261)
	c.Store(regs.FIFO(2), 0x00000065)
	assert.Equal(t, 2, c.TxWords(2))
	assert.Zero(t, c.Load(regs.GINTSTS)&regs.GINTSTS_IEPINT)

	assert.Equal(t, []byte("abcde"), c.CompleteIn(2))
	assert.Zero(t, c.Reg(regs.DIEPTSIZ(2)))
	assert.Zero(t, c.Reg(regs.DIEPCTL(2))&regs.DEPCTL_EPENA)
	assert.NotZero(t, c.Load(regs.GINTSTS)&regs.GINTSTS_IEPINT)
	assert.Equal(t, uint32(1<<2), c.Load(regs.DAINT))

	c.Store(regs.DIEPINT(2), regs.DEPINT_XFRC)
	assert.Zero(t, c.Load(regs.GINTSTS)&regs.GINTSTS_IEPINT)
}

func TestWriteCounts(t *testing.T) {
	c := New()
	c.Store(regs.DCFG, 1)
	c.Store(regs.DCFG, 2)
	c.Store(regs.DCTL, 0)
	assert.Equal(t, 2, c.Writes(regs.DCFG))
	assert.Equal(t, 3, c.TotalWrites())

	c.SetReg(regs.DCFG, 7)
	assert.Equal(t, 2, c.Writes(regs.DCFG))
	assert.Equal(t, uint32(7), c.Load(regs.DCFG))

	c.ResetWriteCounts()
	assert.Zero(t, c.TotalWrites())
}
