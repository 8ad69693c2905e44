package escp

import (
	"bytes"
	"fmt"
)

// Encoder 向内部缓冲区写入指令。它只负责字节语法，不跟踪打印头位置。
type Encoder struct {
	buf   bytes.Buffer
	table CharTable
}

// NewEncoder 创建使用指定字符表的编码器。
func NewEncoder(table CharTable) *Encoder {
	return &Encoder{table: table}
}

// Table 返回编码器使用的字符表。
func (e *Encoder) Table() CharTable { return e.table }

// Bytes 返回已写入指令的副本。
func (e *Encoder) Bytes() []byte {
	return bytes.Clone(e.buf.Bytes())
}

// Len 返回已写入的字节数。
func (e *Encoder) Len() int { return e.buf.Len() }

func (e *Encoder) esc(cmd byte, args ...byte) {
	e.buf.WriteByte(ESC)
	e.buf.WriteByte(cmd)
	e.buf.Write(args)
}

// Init 写入 ESC @，非默认字符表时随后写入 ESC t n。
func (e *Encoder) Init() {
	e.esc(cmdInit)
	if n, ok := e.table.selector(); ok {
		e.esc(cmdTable, n)
	}
}

// MoveTo 写入 ESC $ nL nH，units 以 1/60" 计，超出范围时钳制。
func (e *Encoder) MoveTo(units int) {
	units = min(max(units, 0), MaxHorizontalUnits)
	e.esc(cmdHorizontal, byte(units&0xFF), byte(units>>8))
}

// Advance 以若干条 ESC J n（每条不超过 255）走纸 units 个 1/180"，返回写入的指令数。
func (e *Encoder) Advance(units int) int {
	n := 0
	for units > 0 {
		step := min(units, MaxVerticalUnits)
		e.esc(cmdVertical, byte(step))
		units -= step
		n++
	}
	return n
}

func (e *Encoder) LineFeed()       { e.buf.WriteByte(LF) }
func (e *Encoder) CarriageReturn() { e.buf.WriteByte(CR) }
func (e *Encoder) FormFeed()       { e.buf.WriteByte(FF) }
func (e *Encoder) Tab()            { e.buf.WriteByte(HT) }

func (e *Encoder) Bold(on bool) {
	if on {
		e.esc(cmdBoldOn)
	} else {
		e.esc(cmdBoldOff)
	}
}

func (e *Encoder) Italic(on bool) {
	if on {
		e.esc(cmdItalicOn)
	} else {
		e.esc(cmdItalicOff)
	}
}

func (e *Encoder) Underline(on bool) { e.esc(cmdUnderline, flag(on)) }

func (e *Encoder) DoubleStrike(on bool) {
	if on {
		e.esc(cmdStrikeOn)
	} else {
		e.esc(cmdStrikeOff)
	}
}

func (e *Encoder) DoubleWidth(on bool)  { e.esc(cmdDoubleWidth, flag(on)) }
func (e *Encoder) DoubleHeight(on bool) { e.esc(cmdDoubleHeight, flag(on)) }

func (e *Encoder) Condensed(on bool) {
	if on {
		e.buf.WriteByte(SI)
	} else {
		e.buf.WriteByte(DC2)
	}
}

// Pitch 选择 10/12/15 CPI。
func (e *Encoder) Pitch(cpi int) error {
	switch cpi {
	case 10:
		e.esc(cmdPitch10)
	case 12:
		e.esc(cmdPitch12)
	case 15:
		e.esc(cmdPitch15)
	default:
		return fmt.Errorf("不支持的 cpi: %d", cpi)
	}
	return nil
}

func (e *Encoder) Typeface(n int) { e.esc(cmdTypeface, byte(min(max(n, 0), 255))) }

// Quality 写入 ESC x n：0 为草稿，1 为信函质量。
func (e *Encoder) Quality(n int) { e.esc(cmdQuality, byte(min(max(n, 0), 1))) }

// CharSpacing 写入 ESC SP n，n 以 1/120" 计。
func (e *Encoder) CharSpacing(n int) { e.esc(cmdCharSpacing, byte(min(max(n, 0), MaxCharSpacing))) }

// Glyph 写入单个字符，无法映射时写入 '?'；返回 false 表示发生了替换。
func (e *Encoder) Glyph(r rune) bool {
	b, ok := e.table.Encode(r)
	if !ok {
		b = Replacement
	}
	e.buf.WriteByte(b)
	return ok
}

// Text 逐字符写入文本，返回写入的字形数与被替换的字符数。
func (e *Encoder) Text(s string) (glyphs, replaced int) {
	for _, r := range s {
		if !e.Glyph(r) {
			replaced++
		}
		glyphs++
	}
	return glyphs, replaced
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}
