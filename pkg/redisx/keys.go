package redisx

import "time"

const (
	// idem:transaction:create:{Idempotency-Key} -> transaction id
	KeyIdemTransactionCreate = "idem:transaction:create:%s"

	// lock:transaction:{id}
	KeyLockTransaction = "lock:transaction:%s"

	// lock:purchase_order:{id}
	KeyLockPurchaseOrder = "lock:purchase_order:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLLock        = 30 * time.Second
)

// pendingValue marks a reserved key whose request is still running.
const pendingValue = "pending"
