// Package regs is the register map of the DesignWare USB OTG core as
// integrated in STM32 parts (RM0090 section 34.16). Offsets are relative to
// the core base address; names follow the reference manual.
package regs

// Core global registers.
const (
	GOTGCTL  uint32 = 0x000 // Control and status
	GAHBCFG  uint32 = 0x008 // AHB configuration
	GUSBCFG  uint32 = 0x00C // USB configuration
	GRSTCTL  uint32 = 0x010 // Reset control
	GINTSTS  uint32 = 0x014 // Interrupt status
	GINTMSK  uint32 = 0x018 // Interrupt mask
	GRXSTSR  uint32 = 0x01C // Receive status debug read (peek)
	GRXSTSP  uint32 = 0x020 // Receive status read and pop
	GRXFSIZ  uint32 = 0x024 // Receive FIFO size
	DIEPTXF0 uint32 = 0x028 // EP0 transmit FIFO size (GNPTXFSIZ)
	GCCFG    uint32 = 0x038 // General core configuration
	CID      uint32 = 0x03C // Core ID
)

// Device mode registers.
const (
	DCFG     uint32 = 0x800 // Device configuration
	DCTL     uint32 = 0x804 // Device control
	DSTS     uint32 = 0x808 // Device status
	DIEPMSK  uint32 = 0x810 // IN endpoint common interrupt mask
	DOEPMSK  uint32 = 0x814 // OUT endpoint common interrupt mask
	DAINT    uint32 = 0x818 // All endpoints interrupt
	DAINTMSK uint32 = 0x81C // All endpoints interrupt mask
)

// Power and clock gating.
const PCGCCTL uint32 = 0xE00

// Per-endpoint register strides.
const (
	epStride   uint32 = 0x20
	fifoStride uint32 = 0x1000
)

// DIEPTXF returns the transmit FIFO size register of IN endpoint n (n >= 1).
func DIEPTXF(n int) uint32 { return 0x104 + uint32(n-1)*4 }

// DIEPCTL returns the control register of IN endpoint n.
func DIEPCTL(n int) uint32 { return 0x900 + uint32(n)*epStride }

// DIEPINT returns the interrupt register of IN endpoint n.
func DIEPINT(n int) uint32 { return 0x908 + uint32(n)*epStride }

// DIEPTSIZ returns the transfer size register of IN endpoint n.
func DIEPTSIZ(n int) uint32 { return 0x910 + uint32(n)*epStride }

// DTXFSTS returns the transmit FIFO status register of IN endpoint n.
func DTXFSTS(n int) uint32 { return 0x918 + uint32(n)*epStride }

// DOEPCTL returns the control register of OUT endpoint n.
func DOEPCTL(n int) uint32 { return 0xB00 + uint32(n)*epStride }

// DOEPINT returns the interrupt register of OUT endpoint n.
func DOEPINT(n int) uint32 { return 0xB08 + uint32(n)*epStride }

// DOEPTSIZ returns the transfer size register of OUT endpoint n.
func DOEPTSIZ(n int) uint32 { return 0xB10 + uint32(n)*epStride }

// FIFO returns the data FIFO window of endpoint n. Writes push into the
// transmit FIFO of IN endpoint n; reads of any window pop the shared
// receive FIFO.
func FIFO(n int) uint32 { return fifoStride + uint32(n)*fifoStride }

// IsFIFO reports whether off falls in a data FIFO window and returns its index.
func IsFIFO(off uint32) (int, bool) {
	if off < fifoStride {
		return 0, false
	}
	return int(off/fifoStride) - 1, true
}

// GAHBCFG bits.
const (
	GAHBCFG_GINT uint32 = 1 << 0 // Global interrupt mask
)

// GUSBCFG bits and fields.
const (
	GUSBCFG_PHYSEL      uint32 = 1 << 6
	GUSBCFG_SRPCAP      uint32 = 1 << 8
	GUSBCFG_HNPCAP      uint32 = 1 << 9
	GUSBCFG_TRDT_Pos           = 10
	GUSBCFG_TRDT_Msk    uint32 = 0xF << GUSBCFG_TRDT_Pos
	GUSBCFG_FHMOD       uint32 = 1 << 29
	GUSBCFG_FDMOD       uint32 = 1 << 30
	GUSBCFG_CTXPKT      uint32 = 1 << 31
	GUSBCFG_TRDT_FS_Max uint32 = 0x6 // Turnaround for AHB >= 32 MHz at full speed
)

// GRSTCTL bits and fields.
const (
	GRSTCTL_CSRST      uint32 = 1 << 0
	GRSTCTL_RXFFLSH    uint32 = 1 << 4
	GRSTCTL_TXFFLSH    uint32 = 1 << 5
	GRSTCTL_TXFNUM_Pos        = 6
	GRSTCTL_TXFNUM_Msk uint32 = 0x1F << GRSTCTL_TXFNUM_Pos
	GRSTCTL_TXFNUM_ALL uint32 = 0x10
	GRSTCTL_AHBIDL     uint32 = 1 << 31
)

// GINTSTS and GINTMSK bits (the mask register shares the layout).
const (
	GINTSTS_CMOD     uint32 = 1 << 0
	GINTSTS_MMIS     uint32 = 1 << 1
	GINTSTS_OTGINT   uint32 = 1 << 2
	GINTSTS_SOF      uint32 = 1 << 3
	GINTSTS_RXFLVL   uint32 = 1 << 4
	GINTSTS_ESUSP    uint32 = 1 << 10
	GINTSTS_USBSUSP  uint32 = 1 << 11
	GINTSTS_USBRST   uint32 = 1 << 12
	GINTSTS_ENUMDNE  uint32 = 1 << 13
	GINTSTS_IEPINT   uint32 = 1 << 18
	GINTSTS_OEPINT   uint32 = 1 << 19
	GINTSTS_SRQINT   uint32 = 1 << 30
	GINTSTS_WKUPINT  uint32 = 1 << 31
	GINTSTS_ReadOnly        = GINTSTS_CMOD | GINTSTS_OTGINT | GINTSTS_RXFLVL | GINTSTS_IEPINT | GINTSTS_OEPINT
)

// GRXSTSR/GRXSTSP fields.
const (
	GRXSTS_EPNUM_Msk  uint32 = 0xF
	GRXSTS_BCNT_Pos          = 4
	GRXSTS_BCNT_Msk   uint32 = 0x7FF << GRXSTS_BCNT_Pos
	GRXSTS_DPID_Pos          = 15
	GRXSTS_DPID_Msk   uint32 = 0x3 << GRXSTS_DPID_Pos
	GRXSTS_PKTSTS_Pos        = 17
	GRXSTS_PKTSTS_Msk uint32 = 0xF << GRXSTS_PKTSTS_Pos
)

// Receive packet status codes (GRXSTS PKTSTS field, device mode).
const (
	PKTSTS_GlobalOutNAK  uint32 = 0x1
	PKTSTS_OutData       uint32 = 0x2
	PKTSTS_OutComplete   uint32 = 0x3
	PKTSTS_SetupComplete uint32 = 0x4
	PKTSTS_SetupData     uint32 = 0x6
)

// RxStatus encodes a receive status queue entry.
func RxStatus(ep int, count int, pktsts uint32) uint32 {
	return uint32(ep)&GRXSTS_EPNUM_Msk |
		uint32(count)<<GRXSTS_BCNT_Pos&GRXSTS_BCNT_Msk |
		pktsts<<GRXSTS_PKTSTS_Pos&GRXSTS_PKTSTS_Msk
}

// DecodeRxStatus splits a receive status queue entry into its fields.
func DecodeRxStatus(v uint32) (ep int, count int, pktsts uint32) {
	return int(v & GRXSTS_EPNUM_Msk),
		int((v & GRXSTS_BCNT_Msk) >> GRXSTS_BCNT_Pos),
		(v & GRXSTS_PKTSTS_Msk) >> GRXSTS_PKTSTS_Pos
}

// GRXFSIZ and transmit FIFO size fields.
const (
	FIFOSIZ_StartAddr_Msk uint32 = 0xFFFF
	FIFOSIZ_Depth_Pos            = 16
)

// TxFIFOSize encodes a DIEPTXF register value (start and depth in words).
func TxFIFOSize(start, depth int) uint32 {
	return uint32(depth)<<FIFOSIZ_Depth_Pos | uint32(start)&FIFOSIZ_StartAddr_Msk
}

// GCCFG bits.
const (
	GCCFG_PWRDWN     uint32 = 1 << 16 // Transceiver power (1 = active)
	GCCFG_VBUSASEN   uint32 = 1 << 18
	GCCFG_VBUSBSEN   uint32 = 1 << 19
	GCCFG_SOFOUTEN   uint32 = 1 << 20
	GCCFG_NOVBUSSENS uint32 = 1 << 21
)

// DCFG bits and fields.
const (
	DCFG_DSPD_Msk     uint32 = 0x3
	DCFG_DSPD_HS      uint32 = 0x0
	DCFG_DSPD_FS_HSPH uint32 = 0x1 // Full speed using the high-speed PHY
	DCFG_DSPD_FS      uint32 = 0x3 // Full speed using the internal PHY
	DCFG_NZLSOHSK     uint32 = 1 << 2
	DCFG_DAD_Pos             = 4
	DCFG_DAD_Msk      uint32 = 0x7F << DCFG_DAD_Pos
)

// DCTL bits.
const (
	DCTL_RWUSIG uint32 = 1 << 0
	DCTL_SDIS   uint32 = 1 << 1
)

// DIEPMSK/DOEPMSK and DIEPINT/DOEPINT bits.
const (
	DEPINT_XFRC    uint32 = 1 << 0 // Transfer completed
	DEPINT_EPDISD  uint32 = 1 << 1 // Endpoint disabled
	DEPINT_STUP    uint32 = 1 << 3 // SETUP phase done (OUT)
	DEPINT_TOC     uint32 = 1 << 3 // Timeout (IN)
	DEPINT_ITTXFE  uint32 = 1 << 4
	DEPINT_INEPNE  uint32 = 1 << 6
	DEPINT_TXFE    uint32 = 1 << 7
	DEPINT_All     uint32 = 0xFFFF
	DAINT_OEP_Pos         = 16
)

// DIEPCTL/DOEPCTL bits and fields.
const (
	DEPCTL_MPSIZ_Msk  uint32 = 0x7FF
	DEPCTL0_MPSIZ_Msk uint32 = 0x3
	DEPCTL_USBAEP     uint32 = 1 << 15
	DEPCTL_NAKSTS     uint32 = 1 << 17
	DEPCTL_EPTYP_Pos         = 18
	DEPCTL_EPTYP_Msk  uint32 = 0x3 << DEPCTL_EPTYP_Pos
	DEPCTL_SNPM       uint32 = 1 << 20
	DEPCTL_STALL      uint32 = 1 << 21
	DEPCTL_TXFNUM_Pos        = 22
	DEPCTL_TXFNUM_Msk uint32 = 0xF << DEPCTL_TXFNUM_Pos
	DEPCTL_CNAK       uint32 = 1 << 26
	DEPCTL_SNAK       uint32 = 1 << 27
	DEPCTL_SD0PID     uint32 = 1 << 28
	DEPCTL_SD1PID     uint32 = 1 << 29
	DEPCTL_EPDIS      uint32 = 1 << 30
	DEPCTL_EPENA      uint32 = 1 << 31
	DEPCTL_WriteOnly         = DEPCTL_CNAK | DEPCTL_SNAK | DEPCTL_SD0PID | DEPCTL_SD1PID
)

// EP0 MPSIZ encoding.
const (
	DEPCTL0_MPSIZ_64 uint32 = 0x0
	DEPCTL0_MPSIZ_32 uint32 = 0x1
	DEPCTL0_MPSIZ_16 uint32 = 0x2
	DEPCTL0_MPSIZ_8  uint32 = 0x3
)

// DIEPTSIZ/DOEPTSIZ fields.
const (
	DEPTSIZ_XFRSIZ_Msk   uint32 = 0x7FFFF
	DEPTSIZ0_XFRSIZ_Msk  uint32 = 0x7F
	DEPTSIZ_PKTCNT_Pos          = 19
	DEPTSIZ_PKTCNT_Msk   uint32 = 0x3FF << DEPTSIZ_PKTCNT_Pos
	DEPTSIZ_STUPCNT_Pos         = 29
	DEPTSIZ_STUPCNT_Msk  uint32 = 0x3 << DEPTSIZ_STUPCNT_Pos
	DEPTSIZ_PKTCNT_One   uint32 = 1 << DEPTSIZ_PKTCNT_Pos
	DEPTSIZ_STUPCNT_One  uint32 = 1 << DEPTSIZ_STUPCNT_Pos
)
