package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams   = orz.NewError(10400, "参数无效")
	ErrRunNotFound     = orz.NewError(10404, "计算批次不存在")
	ErrNoRunYet        = orz.NewError(10000, "尚未执行过计算")
	ErrLoopNotRunning  = orz.NewError(10001, "定时计算未在运行")
	ErrOrderFileNotSet = orz.NewError(10002, "未配置委托文件路径")
)
