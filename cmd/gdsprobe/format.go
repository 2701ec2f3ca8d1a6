package main

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wippyai/fbnative"
	"github.com/wippyai/fbnative/xsqlda"
)

// Day zero of the client date encoding.
var epoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

func columnLabel(v *xsqlda.Var) string {
	if v.Alias != "" {
		return v.Alias
	}
	if v.Name != "" {
		return v.Name
	}
	return "?"
}

// formatValue renders a fetched column for display.
func formatValue(v *xsqlda.Var) string {
	if v.IsNull() {
		return "<null>"
	}
	order := fbnative.Host().Order
	d := v.Data
	switch t := xsqlda.BaseType(v.Type); {
	case t == xsqlda.SQLText:
		return strings.TrimRight(string(d), " ")
	case t == xsqlda.SQLVarying:
		return string(d)
	case t == xsqlda.SQLShort && len(d) >= 2:
		return scaled(int64(int16(order.Uint16(d))), v.Scale)
	case t == xsqlda.SQLLong && len(d) >= 4:
		return scaled(int64(int32(order.Uint32(d))), v.Scale)
	case t == xsqlda.SQLInt64 && len(d) >= 8:
		return scaled(int64(order.Uint64(d)), v.Scale)
	case t == xsqlda.SQLFloat && len(d) >= 4:
		return strconv.FormatFloat(float64(math.Float32frombits(order.Uint32(d))), 'g', -1, 32)
	case (t == xsqlda.SQLDouble || t == xsqlda.SQLDFloat) && len(d) >= 8:
		return strconv.FormatFloat(math.Float64frombits(order.Uint64(d)), 'g', -1, 64)
	case t == xsqlda.SQLBoolean && len(d) >= 1:
		return strconv.FormatBool(d[0] != 0)
	case t == xsqlda.SQLTypeDate && len(d) >= 4:
		return date(int32(order.Uint32(d))).Format("2006-01-02")
	case t == xsqlda.SQLTypeTime && len(d) >= 4:
		return clock(order.Uint32(d))
	case t == xsqlda.SQLTimestamp && len(d) >= 8:
		return date(int32(order.Uint32(d))).Format("2006-01-02") + " " + clock(order.Uint32(d[4:]))
	case t == xsqlda.SQLBlob || t == xsqlda.SQLQuad || t == xsqlda.SQLArray:
		if id, ok := xsqlda.BlobIDFromValue(d); ok {
			return fmt.Sprintf("blob:%#x", uint64(id))
		}
	}
	return hex.EncodeToString(d)
}

// scaled renders n * 10^scale without going through floating point.
func scaled(n int64, scale int16) string {
	s := strconv.FormatInt(n, 10)
	if scale >= 0 {
		if n == 0 {
			return s
		}
		return s + strings.Repeat("0", int(scale))
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	k := int(-scale)
	if len(s) <= k {
		s = strings.Repeat("0", k-len(s)+1) + s
	}
	s = s[:len(s)-k] + "." + s[len(s)-k:]
	if neg {
		s = "-" + s
	}
	return s
}

func date(days int32) time.Time {
	return epoch.AddDate(0, 0, int(days))
}

// clock renders a time of day given in units of 100 microseconds.
func clock(units uint32) string {
	d := time.Duration(units) * 100 * time.Microsecond
	return time.Time{}.Add(d).Format("15:04:05.0000")
}
