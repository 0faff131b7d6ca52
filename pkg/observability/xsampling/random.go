package xsampling

import (
	"crypto/rand"
	"encoding/binary"
)

// 浮点数转换常量
const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0.0, 1.0) 范围内的随机浮点数
//
// 系统熵源不可用时返回 1，即按未命中处理：采样发生在日志调用路径上，不能 panic。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>(64-floatBits)) * floatScale
}
