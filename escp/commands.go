// Package escp 实现打印机指令流的字节语法：编码器只输出下列受支持的子集，
// 解码器按同一语法切分指令流，遇到未知转义序列即报错。
package escp

// 控制字节
const (
	ESC byte = 0x1B
	LF  byte = 0x0A
	CR  byte = 0x0D
	FF  byte = 0x0C
	HT  byte = 0x09
	SI  byte = 0x0F // 压缩字体开
	DC2 byte = 0x12 // 压缩字体关
)

// ESC 之后的命令字节
const (
	cmdInit         byte = '@' // ESC @
	cmdTable        byte = 't' // ESC t n
	cmdHorizontal   byte = '$' // ESC $ nL nH，单位 1/60"
	cmdVertical     byte = 'J' // ESC J n，单位 1/180"
	cmdBoldOn       byte = 'E'
	cmdBoldOff      byte = 'F'
	cmdItalicOn     byte = '4'
	cmdItalicOff    byte = '5'
	cmdUnderline    byte = '-' // ESC - n
	cmdStrikeOn     byte = 'G'
	cmdStrikeOff    byte = 'H'
	cmdDoubleWidth  byte = 'W' // ESC W n
	cmdDoubleHeight byte = 'w' // ESC w n
	cmdPitch10      byte = 'P'
	cmdPitch12      byte = 'M'
	cmdPitch15      byte = 'g'
	cmdTypeface     byte = 'k' // ESC k n
	cmdQuality      byte = 'x' // ESC x n
	cmdCharSpacing  byte = ' ' // ESC SP n，单位 1/120"
)

// 参数上限
const (
	MaxVerticalUnits   = 255
	MaxHorizontalUnits = 0xFFFF
	MaxCharSpacing     = 127
)

// Op 是解码后的指令类型。
type Op int

const (
	OpText Op = iota
	OpInit
	OpSelectTable
	OpHorizontal
	OpVertical
	OpLineFeed
	OpCarriageReturn
	OpFormFeed
	OpTab
	OpBold
	OpItalic
	OpUnderline
	OpDoubleStrike
	OpDoubleWidth
	OpDoubleHeight
	OpCondensed
	OpPitch
	OpTypeface
	OpQuality
	OpCharSpacing
)

var opNames = [...]string{
	OpText:           "text",
	OpInit:           "init",
	OpSelectTable:    "table",
	OpHorizontal:     "h-abs",
	OpVertical:       "v-rel",
	OpLineFeed:       "lf",
	OpCarriageReturn: "cr",
	OpFormFeed:       "ff",
	OpTab:            "tab",
	OpBold:           "bold",
	OpItalic:         "italic",
	OpUnderline:      "underline",
	OpDoubleStrike:   "double-strike",
	OpDoubleWidth:    "double-width",
	OpDoubleHeight:   "double-height",
	OpCondensed:      "condensed",
	OpPitch:          "cpi",
	OpTypeface:       "typeface",
	OpQuality:        "quality",
	OpCharSpacing:    "char-spacing",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// IsStyle 报告该指令是否只改变字体状态。
func (o Op) IsStyle() bool {
	return o >= OpBold
}
