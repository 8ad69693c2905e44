package layout

import (
	"errors"
	"fmt"
)

// Phase 标识出错的流水线阶段。
type Phase string

const (
	PhaseBinding     Phase = "binding"
	PhaseStyle       Phase = "style"
	PhaseMeasurement Phase = "measurement"
	PhaseLayout      Phase = "layout"
	PhaseEmission    Phase = "emission"
)

// 致命错误的根因，可用 errors.Is 判断。
var (
	ErrUnresolvedNode    = errors.New("存在未展开的动态节点")
	ErrInvalidSpec       = errors.New("无效的布局规格")
	ErrBackend           = errors.New("布局后端不可用")
	ErrUnresolvedContent = errors.New("叶子节点内容未解析")
	ErrMissingMetrics    = errors.New("缺少字宽数据")
)

// Error 记录失败的阶段与节点。
type Error struct {
	Phase Phase
	Kind  Kind
	ID    string
	Err   error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s 阶段失败（%s %s）: %v", e.Phase, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s 阶段失败（%s）: %v", e.Phase, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail 构造带阶段与节点信息的错误；已是 *Error 的错误原样返回，保留最内层节点。
func Fail(phase Phase, n Node, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	e := &Error{Phase: phase, Kind: -1, Err: err}
	if n != nil {
		e.Kind = n.Kind()
		e.ID = n.Base().ID
	}
	tracer().Errorf("%v", e)
	return e
}

func unresolved(phase Phase, n Node) error {
	return Fail(phase, n, fmt.Errorf("%w: %s", ErrUnresolvedNode, n.Kind()))
}
