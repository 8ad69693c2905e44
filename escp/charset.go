package escp

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CharTable 是打印机当前的字符表。
type CharTable int

const (
	// ASCII 只允许 0x20–0x7E 的可打印字符，是打印机复位后的默认表，不需要额外指令。
	ASCII CharTable = iota
	// PC437 在 ASCII 之外使用 0x80–0xFF 的 IBM 437 制表符与重音字母，以 ESC t 1 选择。
	PC437
)

// Replacement 是无法映射的字符的替代字节。
const Replacement byte = '?'

func (t CharTable) String() string {
	switch t {
	case PC437:
		return "pc437"
	}
	return "ascii"
}

// ParseCharTable 解析字符表名称，空字符串表示 ASCII。
func ParseCharTable(name string) (CharTable, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ascii":
		return ASCII, nil
	case "pc437", "cp437", "ibm437":
		return PC437, nil
	}
	return ASCII, fmt.Errorf("未知的字符表: %s", name)
}

// selector 返回 ESC t 的参数；默认表不需要选择。
func (t CharTable) selector() (byte, bool) {
	if t == PC437 {
		return 1, true
	}
	return 0, false
}

// Encode 把字符映射为当前表中的单字节，控制字符和表外字符返回 false。
func (t CharTable) Encode(r rune) (byte, bool) {
	if r >= 0x20 && r <= 0x7E {
		return byte(r), true
	}
	if t == PC437 {
		if b, ok := charmap.CodePage437.EncodeRune(r); ok && b >= 0x80 {
			return b, true
		}
	}
	return 0, false
}

// Decode 把字节还原为字符，用于指令流回放。
func (t CharTable) Decode(b byte) rune {
	if b >= 0x20 && b <= 0x7E {
		return rune(b)
	}
	if t == PC437 && b >= 0x80 {
		return charmap.CodePage437.DecodeByte(b)
	}
	return rune(Replacement)
}

// Printable 报告字节在该表中是否为可打印字符。
func (t CharTable) Printable(b byte) bool {
	if b >= 0x20 && b <= 0x7E {
		return true
	}
	return t == PC437 && b >= 0x80
}
