package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	returnNumberPrefix = "RET"
	refundNumberPrefix = "RFD"
)

// NewReturnNumber generates a human-readable return number from a timestamp and a random suffix
func NewReturnNumber(now time.Time) string {
	return newNumber(returnNumberPrefix, now)
}

// NewRefundTransactionNumber generates the reference stored with a gateway refund
func NewRefundTransactionNumber(now time.Time) string {
	return newNumber(refundNumberPrefix, now)
}

func newNumber(prefix string, now time.Time) string {
	ts := strings.Replace(now.UTC().Format("20060102150405.000"), ".", "", 1)
	return fmt.Sprintf("%s-%s-%s", prefix, ts, randomSuffix())
}

func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the clock
		return fmt.Sprintf("%08X", time.Now().UnixNano()&0xffffffff)
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
