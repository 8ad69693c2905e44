package escp

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnknownCommand 表示指令流中出现了受支持子集以外的字节或转义序列。
	ErrUnknownCommand = errors.New("未知指令")
	// ErrTruncated 表示指令参数不完整。
	ErrTruncated = errors.New("指令被截断")
)

// Command 是解码后的一条指令。
type Command struct {
	Op Op
	// Arg 是指令参数：位置类为单位数，开关类为 0/1，cpi、字体、品质与字符表为对应值。
	Arg int
	// Text 是 OpText 的原始字节。
	Text []byte
	// Offset 是指令在流中的起始位置。
	Offset int
}

func (c Command) String() string {
	if c.Op == OpText {
		return fmt.Sprintf("text %q", c.Text)
	}
	return fmt.Sprintf("%s %d", c.Op, c.Arg)
}

// Decoder 按编码器使用的语法逐条读取指令，并跟踪 ESC t 选择的字符表。
type Decoder struct {
	data  []byte
	pos   int
	table CharTable
}

func NewDecoder(stream []byte) *Decoder {
	return &Decoder{data: stream}
}

// Table 返回解码到当前位置时生效的字符表。
func (d *Decoder) Table() CharTable { return d.table }

// Next 返回下一条指令，流结束时返回 io.EOF。
func (d *Decoder) Next() (Command, error) {
	if d.pos >= len(d.data) {
		return Command{}, io.EOF
	}
	start := d.pos
	b := d.data[d.pos]
	switch b {
	case ESC:
		return d.escape(start)
	case LF:
		d.pos++
		return Command{Op: OpLineFeed, Offset: start}, nil
	case CR:
		d.pos++
		return Command{Op: OpCarriageReturn, Offset: start}, nil
	case FF:
		d.pos++
		return Command{Op: OpFormFeed, Offset: start}, nil
	case HT:
		d.pos++
		return Command{Op: OpTab, Offset: start}, nil
	case SI:
		d.pos++
		return Command{Op: OpCondensed, Arg: 1, Offset: start}, nil
	case DC2:
		d.pos++
		return Command{Op: OpCondensed, Arg: 0, Offset: start}, nil
	}
	if !d.table.Printable(b) {
		return Command{}, fmt.Errorf("%w: 偏移 %d 处的字节 0x%02X", ErrUnknownCommand, start, b)
	}
	for d.pos < len(d.data) && d.table.Printable(d.data[d.pos]) {
		d.pos++
	}
	return Command{Op: OpText, Text: d.data[start:d.pos], Offset: start}, nil
}

func (d *Decoder) escape(start int) (Command, error) {
	if start+1 >= len(d.data) {
		return Command{}, fmt.Errorf("%w: 偏移 %d 处的 ESC", ErrTruncated, start)
	}
	cmd := d.data[start+1]
	arg := func(n int) ([]byte, error) {
		if start+2+n > len(d.data) {
			return nil, fmt.Errorf("%w: 偏移 %d 处的 ESC %q 缺少参数", ErrTruncated, start, cmd)
		}
		return d.data[start+2 : start+2+n], nil
	}
	c := Command{Offset: start}
	width := 0
	switch cmd {
	case cmdInit:
		c.Op = OpInit
		d.table = ASCII
	case cmdBoldOn, cmdBoldOff:
		c.Op, c.Arg = OpBold, boolArg(cmd == cmdBoldOn)
	case cmdItalicOn, cmdItalicOff:
		c.Op, c.Arg = OpItalic, boolArg(cmd == cmdItalicOn)
	case cmdStrikeOn, cmdStrikeOff:
		c.Op, c.Arg = OpDoubleStrike, boolArg(cmd == cmdStrikeOn)
	case cmdPitch10:
		c.Op, c.Arg = OpPitch, 10
	case cmdPitch12:
		c.Op, c.Arg = OpPitch, 12
	case cmdPitch15:
		c.Op, c.Arg = OpPitch, 15
	case cmdHorizontal:
		p, err := arg(2)
		if err != nil {
			return Command{}, err
		}
		c.Op, c.Arg, width = OpHorizontal, int(p[0])+int(p[1])*256, 2
	case cmdVertical, cmdUnderline, cmdDoubleWidth, cmdDoubleHeight, cmdTypeface, cmdQuality,
		cmdCharSpacing, cmdTable:
		p, err := arg(1)
		if err != nil {
			return Command{}, err
		}
		c.Arg, width = int(p[0]), 1
		c.Op = singleArgOps[cmd]
		if cmd == cmdTable {
			d.table = ASCII
			if c.Arg == 1 {
				d.table = PC437
			}
		}
	default:
		return Command{}, fmt.Errorf("%w: 偏移 %d 处的 ESC 0x%02X", ErrUnknownCommand, start, cmd)
	}
	d.pos = start + 2 + width
	return c, nil
}

var singleArgOps = map[byte]Op{
	cmdVertical:     OpVertical,
	cmdUnderline:    OpUnderline,
	cmdDoubleWidth:  OpDoubleWidth,
	cmdDoubleHeight: OpDoubleHeight,
	cmdTypeface:     OpTypeface,
	cmdQuality:      OpQuality,
	cmdCharSpacing:  OpCharSpacing,
	cmdTable:        OpSelectTable,
}

func boolArg(on bool) int {
	if on {
		return 1
	}
	return 0
}

// Decode 解码整个指令流。
func Decode(stream []byte) ([]Command, error) {
	d := NewDecoder(stream)
	var out []Command
	for {
		c, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

// Count 统计指定类型的指令数。
func Count(cmds []Command, op Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter 返回指定类型的指令。
func Filter(cmds []Command, op Op) []Command {
	var out []Command
	for _, c := range cmds {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}
