package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// invoiceDayLayout is the date prefix of every invoice number.
const invoiceDayLayout = "20060102"

// BusinessDay returns the YYYYMMDD prefix for t in the given zone.
func BusinessDay(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(invoiceDayLayout)
}

// FormatInvoiceNumber renders day and sequence as YYYYMMDD-NNNN. Sequences
// above 9999 widen instead of wrapping.
func FormatInvoiceNumber(day string, seq int) string {
	return fmt.Sprintf("%s-%04d", day, seq)
}

// ParseInvoiceNumber splits an invoice number into its day prefix and
// sequence. ok is false for anything not shaped like YYYYMMDD-NNNN.
func ParseInvoiceNumber(invoice string) (day string, seq int, ok bool) {
	day, rawSeq, found := strings.Cut(invoice, "-")
	if !found || len(day) != len(invoiceDayLayout) || len(rawSeq) < 4 {
		return "", 0, false
	}
	if _, err := time.Parse(invoiceDayLayout, day); err != nil {
		return "", 0, false
	}
	seq, err := strconv.Atoi(rawSeq)
	if err != nil || seq <= 0 {
		return "", 0, false
	}
	return day, seq, true
}

// NextInvoiceNumber derives the invoice that follows last on the given
// business day: the sequence continues when last carries the same day and
// restarts at 0001 otherwise.
func NextInvoiceNumber(last, day string) string {
	return FormatInvoiceNumber(day, nextSequence(last, day))
}

func nextSequence(last, day string) int {
	lastDay, seq, ok := ParseInvoiceNumber(last)
	if !ok || lastDay != day {
		return 1
	}
	return seq + 1
}
