package proto

import "fmt"

// WrongConfigLength signals that configuration data was not 16 bytes long.
type WrongConfigLength struct {
	Expected int
	Actual   int
}

func (e *WrongConfigLength) Error() string {
	return fmt.Sprintf("proto: wrong sign configuration data length: expected %d, got %d", e.Expected, e.Actual)
}

// UnknownConfig signals that configuration data didn't match any known
// SignType.
type UnknownConfig struct {
	Bytes []byte
}

func (e *UnknownConfig) Error() string {
	return fmt.Sprintf("proto: configuration data didn't match any known sign: % X", e.Bytes)
}

// SignType identifies a model of sign, determining its dimensions and the
// 16-byte configuration block sent to it during Configure.
//
// Byte 0 of the configuration block distinguishes the two hardware
// families: 0x04 for Max3000 flip-dot signs, 0x08 for Horizon LED signs.
// Byte 1 is a per-model ID unique within its family. The remaining bytes
// are family-specific layout parameters (height, width breakdown, bits per
// column) observed from real configuration blocks; several bytes are of
// unknown purpose and are always zero.
type SignType int

const (
	Max3000Front112x16 SignType = iota
	Max3000Front98x16
	Max3000Side90x7
	Max3000Rear30x10
	Max3000Rear23x10
	Max3000Dash30x7
	HorizonFront160x16
	HorizonFront140x16
	HorizonSide96x8
	HorizonRear48x16
	HorizonDash40x12
)

func (t SignType) String() string {
	switch t {
	case Max3000Front112x16:
		return "Max3000Front112x16"
	case Max3000Front98x16:
		return "Max3000Front98x16"
	case Max3000Side90x7:
		return "Max3000Side90x7"
	case Max3000Rear30x10:
		return "Max3000Rear30x10"
	case Max3000Rear23x10:
		return "Max3000Rear23x10"
	case Max3000Dash30x7:
		return "Max3000Dash30x7"
	case HorizonFront160x16:
		return "HorizonFront160x16"
	case HorizonFront140x16:
		return "HorizonFront140x16"
	case HorizonSide96x8:
		return "HorizonSide96x8"
	case HorizonRear48x16:
		return "HorizonRear48x16"
	case HorizonDash40x12:
		return "HorizonDash40x12"
	default:
		return fmt.Sprintf("SignType(%d)", int(t))
	}
}

var signTypeConfig = map[SignType][16]byte{
	Max3000Front112x16: {0x04, 0x47, 0x00, 0x0F, 0x10, 0x1C, 0x1C, 0x1C, 0x1C, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	Max3000Front98x16:  {0x04, 0x4D, 0x00, 0x0D, 0x10, 0x0E, 0x1C, 0x1C, 0x1C, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	Max3000Side90x7:    {0x04, 0x20, 0x00, 0x06, 0x07, 0x1E, 0x1E, 0x1E, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	Max3000Rear30x10:   {0x04, 0x62, 0x00, 0x04, 0x0A, 0x1E, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	Max3000Rear23x10:   {0x04, 0x61, 0x00, 0x04, 0x0A, 0x17, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	Max3000Dash30x7:    {0x04, 0x26, 0x00, 0x03, 0x07, 0x1E, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	HorizonFront160x16: {0x08, 0xB1, 0x00, 0x15, 0x0C, 0x10, 0x00, 0xA0, 0x04, 0x00, 0x28, 0x00, 0x00, 0x00, 0x00, 0x00},
	HorizonFront140x16: {0x08, 0xB2, 0x00, 0x12, 0x04, 0x10, 0x00, 0x8C, 0x01, 0x03, 0x14, 0x28, 0x00, 0x00, 0x00, 0x00},
	HorizonSide96x8:    {0x08, 0xB4, 0x00, 0x07, 0x0C, 0x08, 0x00, 0x60, 0x02, 0x00, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00},
	HorizonRear48x16:   {0x08, 0xB5, 0x00, 0x07, 0x0C, 0x10, 0x00, 0x30, 0x01, 0x00, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00},
	HorizonDash40x12:   {0x08, 0xB9, 0x00, 0x06, 0x8C, 0x0C, 0x00, 0x28, 0x01, 0x00, 0x28, 0x00, 0x04, 0x00, 0x00, 0x00},
}

var signTypeDimensions = map[SignType][2]uint32{
	Max3000Front112x16: {112, 16},
	Max3000Front98x16:  {98, 16},
	Max3000Side90x7:    {90, 7},
	Max3000Rear30x10:   {30, 10},
	Max3000Rear23x10:   {23, 10},
	Max3000Dash30x7:    {30, 7},
	HorizonFront160x16: {160, 16},
	HorizonFront140x16: {140, 16},
	HorizonSide96x8:    {96, 8},
	HorizonRear48x16:   {48, 16},
	HorizonDash40x12:   {40, 12},
}

// AllSignTypes lists every recognized SignType, in declaration order. Used
// to resolve sign type names parsed out of config files.
var AllSignTypes = []SignType{
	Max3000Front112x16,
	Max3000Front98x16,
	Max3000Side90x7,
	Max3000Rear30x10,
	Max3000Rear23x10,
	Max3000Dash30x7,
	HorizonFront160x16,
	HorizonFront140x16,
	HorizonSide96x8,
	HorizonRear48x16,
	HorizonDash40x12,
}

var signTypeByConfigKey = func() map[[2]byte]SignType {
	m := make(map[[2]byte]SignType, len(signTypeConfig))
	for t, cfg := range signTypeConfig {
		m[[2]byte{cfg[0], cfg[1]}] = t
	}
	return m
}()

// Dimensions returns the (width, height) in pixels of this sign type.
func (t SignType) Dimensions() (width, height uint32) {
	d := signTypeDimensions[t]
	return d[0], d[1]
}

// ConfigBytes returns the 16-byte configuration block for this sign type.
func (t SignType) ConfigBytes() []byte {
	cfg := signTypeConfig[t]
	out := make([]byte, 16)
	copy(out, cfg[:])
	return out
}

// SignTypeFromBytes recovers the SignType matching a 16-byte configuration
// block, or WrongConfigLength / UnknownConfig.
func SignTypeFromBytes(data []byte) (SignType, error) {
	if len(data) != 16 {
		return 0, &WrongConfigLength{Expected: 16, Actual: len(data)}
	}
	t, ok := signTypeByConfigKey[[2]byte{data[0], data[1]}]
	if !ok {
		return 0, &UnknownConfig{Bytes: append([]byte(nil), data...)}
	}
	return t, nil
}
