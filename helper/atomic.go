package helper

import "sync/atomic"

// AtomBool is a bool that is safe to share between goroutines.
type AtomBool struct {
	flag int32
}

func (b *AtomBool) Set(value bool) {
	var i int32 = 0
	if value {
		i = 1
	}
	atomic.StoreInt32(&b.flag, i)
}

func (b *AtomBool) Get() bool {
	return atomic.LoadInt32(&b.flag) != 0
}

// CompareAndSet sets the flag to value only if it currently holds old, reporting whether it did.
func (b *AtomBool) CompareAndSet(old bool, value bool) bool {
	var o, n int32
	if old {
		o = 1
	}
	if value {
		n = 1
	}
	return atomic.CompareAndSwapInt32(&b.flag, o, n)
}
