package errors

import (
	"fmt"
	"sync"
)

// registry 按错误码索引全部已登记的 Errno，响应层据此还原 HTTP 状态。
var registry = struct {
	sync.RWMutex
	byCode map[int]*Errno
}{byCode: make(map[int]*Errno)}

// Register 登记 Errno 并原样返回，供包级变量声明使用。错误码重复时 panic。
func Register(e *Errno) *Errno {
	registry.Lock()
	defer registry.Unlock()

	if prev, ok := registry.byCode[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d registered twice: %q and %q", e.Code, prev.MessageEN, e.MessageEN))
	}
	registry.byCode[e.Code] = e
	return e
}

// Lookup 按错误码查找已登记的 Errno。
func Lookup(code int) (*Errno, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.byCode[code]
	return e, ok
}
