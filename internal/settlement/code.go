package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func shortHex(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:4]
}

// TransactionCode renders TRANS/YYYYMMDD/xxxx from the row id.
func TransactionCode(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("TRANS/%s/%s", now.Format("20060102"), shortHex(id))
}

// CashierBookCode renders C-BOOK/YYYYMMDD/xxxx.
func CashierBookCode(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("C-BOOK/%s/%s", now.Format("20060102"), shortHex(id))
}

// PurchaseOrderCode renders PO-YYYYMMDD-xxxx.
func PurchaseOrderCode(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("PO-%s-%s", now.Format("20060102"), shortHex(id))
}

// SupplierCode renders NNNN-ABC: a zero padded sequence and three letters
// taken from the supplier name.
func SupplierCode(name string, seq int) string {
	words := strings.Fields(strings.ToUpper(name))
	first := func(w string) string { return string([]rune(w)[:1]) }

	alpha := "XXX"
	switch {
	case len(words) == 1:
		r := []rune(words[0])
		if len(r) > 3 {
			r = r[:3]
		}
		alpha = string(r) + strings.Repeat("X", 3-len(r))
	case len(words) == 2:
		alpha = first(words[0]) + first(words[1]) + "X"
	case len(words) >= 3:
		alpha = first(words[0]) + first(words[1]) + first(words[2])
	}
	return fmt.Sprintf("%04d-%s", seq, alpha)
}
