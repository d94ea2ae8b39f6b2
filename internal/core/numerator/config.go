// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charterbooks/internal/core/id"
)

// ErrForeignNumber is returned when a number was not produced by the scope's format.
var ErrForeignNumber = errors.New("number does not belong to scope")

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "RE")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Scope identifies one independent number sequence: a company and a document type.
type Scope struct {
	CompanyID id.ID
	DocType   string
	Config    Config
}

// NewScope builds a scope with the default format for prefix.
func NewScope(companyID id.ID, docType, prefix string) Scope {
	return Scope{CompanyID: companyID, DocType: docType, Config: DefaultConfig(prefix)}
}

// SequenceKey is the storage key of the counter serving period.
func (s Scope) SequenceKey(period time.Time) string {
	base := fmt.Sprintf("%s:%s", s.CompanyID, s.DocType)
	switch s.Config.ResetPeriod {
	case "month":
		return base + ":" + period.Format("2006_01")
	case "year":
		return base + ":" + period.Format("2006")
	default:
		return base
	}
}

// PeriodPrefix is the leading part shared by every number issued in period,
// e.g. "INV-2026-". Recycled numbers are only reissued within their own period.
func (s Scope) PeriodPrefix(period time.Time) string {
	if s.Config.IncludeYear {
		return fmt.Sprintf("%s-%s-", s.Config.Prefix, period.Format("2006"))
	}
	return s.Config.Prefix + "-"
}

// Format creates the final number string.
func (s Scope) Format(period time.Time, num int64) string {
	padWidth := s.Config.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s%0*d", s.PeriodPrefix(period), padWidth, num)
}

// Parse extracts the numeric part of a number issued in this scope.
func (s Scope) Parse(number string) (int64, error) {
	if !strings.HasPrefix(number, s.Config.Prefix+"-") {
		return 0, fmt.Errorf("%w: %q", ErrForeignNumber, number)
	}
	idx := strings.LastIndex(number, "-")
	n, err := strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrForeignNumber, number)
	}
	return n, nil
}
